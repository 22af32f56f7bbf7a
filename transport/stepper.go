package transport

import (
	"errors"
	"io"
)

// DefaultChunkSize is the step size used when Config.ChunkSize is zero.
const DefaultChunkSize = 32 * 1024

var (
	errStarted    = errors.New("transport: transfer already started")
	errNotStarted = errors.New("transport: transfer not started")
	errDone       = errors.New("transport: transfer already complete")
)

// OpenFunc opens both ends of a chunked copy.
type OpenFunc func() (dst io.Writer, src io.Reader, err error)

// FinishFunc releases whatever OpenFunc acquired. It receives the copy error,
// nil on a clean end of input, and returns the transfer's final error.
type FinishFunc func(copyErr error) error

// Stepper is a Transfer that moves at most one chunk from src to dst per
// step. Transports build their chunked transfers on it.
type Stepper struct {
	open   OpenFunc
	finish FinishFunc

	dst   io.Writer
	src   io.Reader
	buf   []byte
	total int64

	started bool
	done    bool
}

// NewStepper returns a Stepper that copies chunkSize bytes per step.
// A nil finish returns the copy error unchanged.
func NewStepper(chunkSize int, open OpenFunc, finish FinishFunc) *Stepper {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if finish == nil {
		finish = func(err error) error { return err }
	}
	return &Stepper{
		open:   open,
		finish: finish,
		buf:    make([]byte, chunkSize),
	}
}

// Start implements Transfer.
func (s *Stepper) Start() (Status, error) {
	if s.started {
		return Failed, errStarted
	}
	s.started = true

	dst, src, err := s.open()
	if err != nil {
		s.done = true
		return Failed, err
	}
	s.dst, s.src = dst, src
	return s.step()
}

// Continue implements Transfer.
func (s *Stepper) Continue() (Status, error) {
	switch {
	case !s.started:
		return Failed, errNotStarted
	case s.done:
		return Failed, errDone
	}
	return s.step()
}

// Transferred implements Transfer.
func (s *Stepper) Transferred() int64 {
	return s.total
}

func (s *Stepper) step() (Status, error) {
	n, err := s.src.Read(s.buf)
	if n > 0 {
		written, werr := s.dst.Write(s.buf[:n])
		s.total += int64(written)
		if werr != nil {
			return s.end(werr)
		}
		if written < n {
			return s.end(io.ErrShortWrite)
		}
	}
	if errors.Is(err, io.EOF) {
		return s.end(nil)
	}
	if err != nil {
		return s.end(err)
	}
	return MoreData, nil
}

func (s *Stepper) end(copyErr error) (Status, error) {
	s.done = true
	if err := s.finish(copyErr); err != nil {
		return Failed, err
	}
	return Finished, nil
}
