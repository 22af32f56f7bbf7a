// Package ftpconn implements transport.Transport for FTP and FTPS on top of
// github.com/gonzalop/ftp.
package ftpconn

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gonzalop/ftp"

	"github.com/gonzalop/remotefs/internal/ascii"
	"github.com/gonzalop/remotefs/transport"
)

// ErrModeSwitch is returned when passive mode is toggled on a live
// connection. The data connection mode is fixed when dialing.
var ErrModeSwitch = errors.New("ftpconn: data connection mode is fixed for the session")

// Conn is an FTP control connection.
type Conn struct {
	c         *ftp.Client
	passive   bool
	chunkSize int
	logger    *slog.Logger
}

var _ transport.Transport = (*Conn)(nil)

// Dial connects to cfg.Addr(). It implements transport.DialFunc.
func Dial(cfg transport.Config) (transport.Transport, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := []ftp.Option{
		ftp.WithTimeout(cfg.Timeout),
		ftp.WithLogger(logger),
		ftp.WithCustomListParser(rawLines{}),
	}
	switch cfg.TLS {
	case transport.TLSExplicit:
		opts = append(opts, ftp.WithExplicitTLS(cfg.TLSConfig))
	case transport.TLSImplicit:
		opts = append(opts, ftp.WithImplicitTLS(cfg.TLSConfig))
	}
	if !cfg.Passive {
		opts = append(opts, ftp.WithActiveMode())
	}
	if cfg.DisableEPSV {
		opts = append(opts, ftp.WithDisableEPSV())
	}

	c, err := ftp.Dial(cfg.Addr(), opts...)
	if err != nil {
		return nil, err
	}
	return &Conn{
		c:         c,
		passive:   cfg.Passive,
		chunkSize: cfg.ChunkSize,
		logger:    logger,
	}, nil
}

// rawLines hands every LIST line back untouched. Listing dialects are
// parsed by the caller.
type rawLines struct{}

func (rawLines) Parse(line string) (*ftp.Entry, bool) {
	return &ftp.Entry{Name: line, Raw: line}, true
}

// SystemType implements transport.Transport.
func (c *Conn) SystemType() (string, error) {
	return c.c.Syst()
}

// Login implements transport.Transport.
func (c *Conn) Login(user, password string) error {
	return c.c.Login(user, password)
}

// SetPassive implements transport.Transport. Only the mode chosen at dial
// time is accepted.
func (c *Conn) SetPassive(on bool) error {
	if on != c.passive {
		return ErrModeSwitch
	}
	return nil
}

// Close sends QUIT and closes the control connection.
func (c *Conn) Close() error {
	return c.c.Quit()
}

// List returns the raw LIST reply lines.
func (c *Conn) List(path string) ([]string, error) {
	entries, err := c.c.List(path)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Raw)
	}
	return lines, nil
}

// NameList implements transport.Transport.
func (c *Conn) NameList(path string) ([]string, error) {
	return c.c.NameList(path)
}

// CurrentDir implements transport.Transport.
func (c *Conn) CurrentDir() (string, error) {
	return c.c.CurrentDir()
}

// ChangeDir implements transport.Transport.
func (c *Conn) ChangeDir(path string) error {
	return c.c.ChangeDir(path)
}

// MakeDir implements transport.Transport.
func (c *Conn) MakeDir(path string) error {
	return c.c.MakeDir(path)
}

// RemoveDir implements transport.Transport.
func (c *Conn) RemoveDir(path string) error {
	return c.c.RemoveDir(path)
}

// Delete implements transport.Transport.
func (c *Conn) Delete(path string) error {
	return c.c.Delete(path)
}

// Rename implements transport.Transport.
func (c *Conn) Rename(from, to string) error {
	return c.c.Rename(from, to)
}

// Chmod sends SITE CHMOD.
func (c *Conn) Chmod(path string, mode os.FileMode) error {
	return c.c.Chmod(path, mode)
}

// Size implements transport.Transport.
func (c *Conn) Size(path string) (int64, error) {
	return c.c.Size(path)
}

// ModTime sends MDTM.
func (c *Conn) ModTime(path string) (time.Time, error) {
	return c.c.ModTime(path)
}

// Retrieve implements transport.Transport. In ASCII mode the server sends
// CRLF line endings, which are turned into LF before reaching w.
func (c *Conn) Retrieve(remote string, w io.Writer, mode transport.TransferMode) error {
	if mode != transport.ASCII {
		return c.c.Retrieve(remote, w)
	}
	return c.withASCII(func() error {
		dec := ascii.NewDecoder(w)
		if err := c.c.Retrieve(remote, dec); err != nil {
			return err
		}
		return dec.Flush()
	})
}

// Store implements transport.Transport. In ASCII mode LF line endings are
// sent as CRLF.
func (c *Conn) Store(remote string, r io.Reader, mode transport.TransferMode) error {
	if mode != transport.ASCII {
		return c.c.Store(remote, r)
	}
	return c.withASCII(func() error {
		return c.c.Store(remote, ascii.NewEncoder(r))
	})
}

// withASCII runs fn with the server in TYPE A and restores TYPE I after.
// The library skips its own TYPE I when its cached type is already I, so
// the cache is primed before TYPE A is sent directly.
func (c *Conn) withASCII(fn func() error) error {
	if err := c.c.Type("I"); err != nil {
		return err
	}
	c.logger.Debug("switching to ascii mode")
	if err := c.expect2xx("TYPE", "A"); err != nil {
		return fmt.Errorf("ftpconn: switch to ascii mode: %w", err)
	}
	err := fn()
	if restoreErr := c.expect2xx("TYPE", "I"); err == nil && restoreErr != nil {
		err = fmt.Errorf("ftpconn: switch back to binary mode: %w", restoreErr)
	}
	return err
}

// NewRetrieve implements transport.Transport. The library's blocking
// Retrieve runs on its own goroutine and writes into a pipe; each step of
// the returned transfer moves one chunk from the pipe to w.
func (c *Conn) NewRetrieve(remote string, w io.Writer, mode transport.TransferMode) transport.Transfer {
	var (
		pr   *io.PipeReader
		done chan error
	)
	open := func() (io.Writer, io.Reader, error) {
		var pw *io.PipeWriter
		pr, pw = io.Pipe()
		done = make(chan error, 1)
		go func() {
			err := c.Retrieve(remote, pw, mode)
			pw.CloseWithError(err)
			done <- err
		}()
		return w, pr, nil
	}
	finish := func(copyErr error) error {
		if copyErr != nil {
			// Unblock the pump if it is still writing.
			pr.CloseWithError(copyErr)
		}
		serverErr := <-done
		if copyErr != nil {
			return copyErr
		}
		return serverErr
	}
	return transport.NewStepper(c.chunkSize, open, finish)
}

// NewStore implements transport.Transport. Each step moves one chunk from r
// into a pipe that the library's blocking Store drains on its own
// goroutine.
func (c *Conn) NewStore(remote string, r io.Reader, mode transport.TransferMode) transport.Transfer {
	var (
		pw   *io.PipeWriter
		done chan error
	)
	open := func() (io.Writer, io.Reader, error) {
		var pr *io.PipeReader
		pr, pw = io.Pipe()
		done = make(chan error, 1)
		go func() {
			err := c.Store(remote, pr, mode)
			// A server that stops reading early must not leave the caller
			// blocked in a pipe write.
			pr.CloseWithError(errOrClosed(err))
			done <- err
		}()
		return pw, r, nil
	}
	finish := func(copyErr error) error {
		pw.CloseWithError(copyErr)
		serverErr := <-done
		if serverErr != nil {
			return serverErr
		}
		return copyErr
	}
	return transport.NewStepper(c.chunkSize, open, finish)
}

func errOrClosed(err error) error {
	if err == nil {
		return io.ErrClosedPipe
	}
	return err
}

// Exec sends SITE EXEC.
func (c *Conn) Exec(command string) (bool, error) {
	return c.site("EXEC " + command)
}

// Site sends SITE with the given arguments.
func (c *Conn) Site(command string) (bool, error) {
	return c.site(command)
}

func (c *Conn) site(command string) (bool, error) {
	resp, err := c.c.Quote("SITE", command)
	if err != nil {
		return false, err
	}
	return resp.Is2xx(), nil
}

// Raw sends command verbatim and returns every reply line.
func (c *Conn) Raw(command string) ([]string, error) {
	resp, err := c.c.Quote(command)
	if err != nil {
		return nil, err
	}
	return resp.Lines, nil
}

func (c *Conn) expect2xx(command string, args ...string) error {
	resp, err := c.c.Quote(command, args...)
	if err != nil {
		return err
	}
	if !resp.Is2xx() {
		return &ftp.ProtocolError{
			Command:  strings.TrimSpace(command + " " + strings.Join(args, " ")),
			Response: resp.Message,
			Code:     resp.Code,
		}
	}
	return nil
}
