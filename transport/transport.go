// Package transport defines the primitive operations a remote file driver is
// built on.
//
// A Transport owns exactly one connection to a remote server and reports
// success or failure of each primitive call. It does not interpret failures:
// classifying them is the driver's job. Implementations are not safe for
// concurrent use and must not be used while a Transfer is in progress.
package transport

import (
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"
)

// ErrUnsupported is returned by transports for primitives their protocol
// cannot express.
var ErrUnsupported = errors.New("transport: operation not supported")

// TransferMode selects how file contents are represented on the wire.
type TransferMode int

const (
	// Binary transfers bytes unchanged (TYPE I).
	Binary TransferMode = iota
	// ASCII transfers text with CRLF line endings on the wire (TYPE A).
	ASCII
)

func (m TransferMode) String() string {
	switch m {
	case Binary:
		return "binary"
	case ASCII:
		return "ascii"
	default:
		return "TransferMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Status is the state a chunked transfer reached after one step.
type Status int

const (
	// Failed means the transfer stopped with an error.
	Failed Status = iota
	// Finished means every byte was moved and the server confirmed it.
	Finished
	// MoreData means the caller must call Continue again.
	MoreData
)

func (s Status) String() string {
	switch s {
	case Failed:
		return "failed"
	case Finished:
		return "finished"
	case MoreData:
		return "more-data"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Transfer is a file transfer driven one chunk at a time by the caller.
//
// Start must be called exactly once. While it and later calls to Continue
// report MoreData the transfer is still open; Finished and Failed are final.
type Transfer interface {
	// Start opens the transfer and moves the first chunk.
	Start() (Status, error)

	// Continue moves the next chunk.
	Continue() (Status, error)

	// Transferred returns the number of payload bytes moved so far.
	Transferred() int64
}

// Transport is the set of primitives a driver needs from a protocol library.
type Transport interface {
	// SystemType returns the server's system type reply (e.g. "UNIX Type: L8").
	SystemType() (string, error)
	Login(user, password string) error
	// SetPassive switches data connections between passive and active mode.
	SetPassive(on bool) error
	Close() error

	// List returns the raw lines of a full directory listing.
	List(path string) ([]string, error)
	// NameList returns bare names, one per entry.
	NameList(path string) ([]string, error)
	CurrentDir() (string, error)
	ChangeDir(path string) error
	MakeDir(path string) error
	RemoveDir(path string) error
	Delete(path string) error
	Rename(from, to string) error
	Chmod(path string, mode os.FileMode) error
	Size(path string) (int64, error)
	ModTime(path string) (time.Time, error)

	// Retrieve copies the remote file into w, blocking until done.
	Retrieve(remote string, w io.Writer, mode TransferMode) error
	// Store copies r into the remote file, blocking until done.
	Store(remote string, r io.Reader, mode TransferMode) error
	// NewRetrieve prepares a chunked download. Nothing happens until Start.
	NewRetrieve(remote string, w io.Writer, mode TransferMode) Transfer
	// NewStore prepares a chunked upload. Nothing happens until Start.
	NewStore(remote string, r io.Reader, mode TransferMode) Transfer

	// Exec runs a command on the server host; ok reports whether the server
	// accepted it.
	Exec(command string) (ok bool, err error)
	// Site sends a server-specific SITE command.
	Site(command string) (ok bool, err error)
	// Raw sends a command verbatim and returns the unparsed reply lines.
	Raw(command string) ([]string, error)
}

// TLSMode selects how TLS is negotiated on the control connection.
type TLSMode int

const (
	TLSNone TLSMode = iota
	// TLSExplicit upgrades a plain connection with AUTH TLS.
	TLSExplicit
	// TLSImplicit starts TLS immediately after the TCP handshake.
	TLSImplicit
)

func (m TLSMode) String() string {
	switch m {
	case TLSNone:
		return "none"
	case TLSExplicit:
		return "explicit"
	case TLSImplicit:
		return "implicit"
	default:
		return "TLSMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Config carries everything a DialFunc needs to open a connection.
type Config struct {
	Host string
	Port int

	TLS       TLSMode
	TLSConfig *tls.Config

	// Passive selects passive data connections at dial time.
	Passive     bool
	DisableEPSV bool

	// Timeout bounds connection setup and each blocking read or write.
	// Zero disables it.
	Timeout time.Duration

	// ChunkSize is the number of bytes a chunked Transfer moves per step.
	ChunkSize int

	// KnownHostsFile and InsecureHostKey configure SSH host key checks.
	KnownHostsFile  string
	InsecureHostKey bool

	Logger *slog.Logger
}

// Addr returns the host:port pair to dial.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DialFunc opens a connection described by cfg. The returned Transport is
// connected but not yet logged in.
type DialFunc func(cfg Config) (Transport, error)
