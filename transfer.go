package remotefs

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/gonzalop/remotefs/internal/ratelimit"
	"github.com/gonzalop/remotefs/transport"
)

// TransferMode selects binary or ASCII transfers.
type TransferMode = transport.TransferMode

const (
	Binary = transport.Binary
	ASCII  = transport.ASCII
)

var errTransferFailed = errors.New("remotefs: transfer failed")

type transferRequest struct {
	local    string
	remote   string
	mode     TransferMode
	async    bool
	progress ProgressFunc
}

// TransferOption configures a single Get or Put.
type TransferOption func(*transferRequest)

// WithLocalPath sets the local file of a transfer. Get defaults to the
// remote base name in the process working directory.
func WithLocalPath(p string) TransferOption {
	return func(r *transferRequest) {
		r.local = p
	}
}

// WithRemotePath sets the remote file of a transfer. Put defaults to the
// local base name in the remote working folder.
func WithRemotePath(p string) TransferOption {
	return func(r *transferRequest) {
		r.remote = p
	}
}

// WithTransferMode sets the transfer mode. The default is Binary.
func WithTransferMode(m TransferMode) TransferOption {
	return func(r *transferRequest) {
		r.mode = m
	}
}

// WithProgress reports the bytes moved so far after every read or write of
// a blocking transfer.
func WithProgress(fn ProgressFunc) TransferOption {
	return func(r *transferRequest) {
		r.progress = fn
	}
}

// WithAsync runs the transfer as a continuation loop: the driver moves one
// chunk per step and calls progress between steps and once more at the
// end. progress may be nil.
//
// The loop runs on the caller's goroutine and cannot be cancelled; a
// progress callback that panics leaves the remote file partial.
func WithAsync(progress ProgressFunc) TransferOption {
	return func(r *transferRequest) {
		r.async = true
		r.progress = progress
	}
}

func newTransferRequest(opts []TransferOption) transferRequest {
	var r transferRequest
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Get downloads remote and returns the local path it was written to. A
// failed download removes the partial local file.
//
// Example:
//
//	local, err := d.Get("/pub/README", remotefs.WithLocalPath("/tmp/README"),
//	    remotefs.WithAsync(func(n int64) { fmt.Printf("\r%d bytes", n) }))
func (d *Driver) Get(remote string, opts ...TransferOption) (string, error) {
	req := newTransferRequest(opts)
	local := req.local
	if local == "" {
		local = path.Base(remote)
	}
	if err := d.ensureReady(); err != nil {
		return "", err
	}

	ec := d.prepare(OpGet)
	ec.remote, ec.local, ec.transferMode, ec.async = remote, local, req.mode, req.async
	d.logger.Debug("downloading", "op", OpGet, "path", remote, "local", local, "mode", req.mode, "async", req.async)

	f, err := os.Create(local)
	if err != nil {
		return "", d.fail(err)
	}
	w := ratelimit.Writer(f, ratelimit.New(d.set.bandwidth))

	if req.async {
		err = d.drive(d.conn.NewRetrieve(remote, w, req.mode), req.progress)
	} else {
		if req.progress != nil {
			w = &progressWriter{w: w, fn: req.progress}
		}
		err = d.conn.Retrieve(remote, w, req.mode)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		typed := d.fail(err)
		d.bestEffort(OpCleanup, func() error { return os.Remove(local) })
		return "", typed
	}
	return local, nil
}

// Put uploads local and returns the remote path it was stored at.
func (d *Driver) Put(local string, opts ...TransferOption) (string, error) {
	req := newTransferRequest(opts)
	remote := req.remote
	if remote == "" {
		remote = filepath.Base(local)
	}
	if err := d.ensureReady(); err != nil {
		return "", err
	}

	ec := d.prepare(OpPut)
	ec.remote, ec.local, ec.transferMode, ec.async = remote, local, req.mode, req.async
	d.logger.Debug("uploading", "op", OpPut, "path", remote, "local", local, "mode", req.mode, "async", req.async)

	f, err := os.Open(local)
	if err != nil {
		return "", d.fail(err)
	}
	defer f.Close()
	var r io.Reader = ratelimit.Reader(f, ratelimit.New(d.set.bandwidth))

	if req.async {
		err = d.drive(d.conn.NewStore(remote, r, req.mode), req.progress)
	} else {
		if req.progress != nil {
			r = &progressReader{r: r, fn: req.progress}
		}
		err = d.conn.Store(remote, r, req.mode)
	}
	if err != nil {
		return "", d.fail(err)
	}
	return remote, nil
}

// drive runs t to completion. progress is called after every step that
// leaves data pending and once when the transfer finishes.
func (d *Driver) drive(t transport.Transfer, progress ProgressFunc) error {
	if progress == nil {
		progress = func(int64) {}
	}

	status, err := t.Start()
	for status == transport.MoreData {
		progress(t.Transferred())
		status, err = t.Continue()
	}
	if status != transport.Finished {
		if err == nil {
			err = errTransferFailed
		}
		return err
	}
	progress(t.Transferred())
	d.logger.Debug("transfer finished", "op", d.ec.op, "bytes", t.Transferred())
	return nil
}
