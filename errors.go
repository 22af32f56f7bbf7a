package remotefs

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/gonzalop/remotefs/transport"
)

// Reasons reported by ConfigurationError.
const (
	ReasonUnknownProtocol = "unknown protocol"
	ReasonBadPort         = "port is not a number"
	ReasonNoHost          = "no host found"
	ReasonBadValue        = "invalid value"
)

// ConfigurationError reports an unusable connection string or option value.
type ConfigurationError struct {
	// Reason is a short description such as ReasonNoHost.
	Reason string

	// Key is the offending extra option, empty for connection-string errors.
	Key string

	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := "remotefs: invalid connection string: " + e.Reason
	if e.Key != "" {
		msg = fmt.Sprintf("remotefs: invalid option %q: %s", e.Key, e.Reason)
	}
	return withCause(msg, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConnectionErrorKind tells which connection-level step failed.
type ConnectionErrorKind int

const (
	ConnOpen ConnectionErrorKind = iota
	ConnClose
	// ConnPassiveOn and ConnPassiveOff report a failed passive-mode toggle.
	ConnPassiveOn
	ConnPassiveOff
	// ConnNotConnected and ConnNotAuthenticated are returned when a driver
	// with a caller-managed lifecycle is used before Connect or Login.
	ConnNotConnected
	ConnNotAuthenticated
)

func (k ConnectionErrorKind) String() string {
	switch k {
	case ConnOpen:
		return "open"
	case ConnClose:
		return "close"
	case ConnPassiveOn:
		return "passive-on"
	case ConnPassiveOff:
		return "passive-off"
	case ConnNotConnected:
		return "not-connected"
	case ConnNotAuthenticated:
		return "not-authenticated"
	default:
		return "ConnectionErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ConnectionError reports a failure to open, close or configure the
// connection itself.
type ConnectionError struct {
	Kind ConnectionErrorKind
	Host string
	Port int
	Err  error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	addr := hostPort(e.Host, e.Port)
	var msg string
	switch e.Kind {
	case ConnOpen:
		msg = "remotefs: could not connect to " + addr
	case ConnClose:
		msg = "remotefs: could not close connection to " + addr
	case ConnPassiveOn:
		msg = "remotefs: could not turn passive mode on for " + addr
	case ConnPassiveOff:
		msg = "remotefs: could not turn passive mode off for " + addr
	case ConnNotConnected:
		msg = "remotefs: not connected to " + addr
	case ConnNotAuthenticated:
		msg = "remotefs: not logged in to " + addr
	default:
		msg = "remotefs: connection error on " + addr
	}
	return withCause(msg, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError reports rejected credentials.
type AuthenticationError struct {
	Host string
	Port int
	User string
	Err  error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("remotefs: login as %q on %s failed", e.User, hostPort(e.Host, e.Port))
	return withCause(msg, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// ListingErrorKind tells which directory read failed.
type ListingErrorKind int

const (
	ListDir ListingErrorKind = iota
	CurrentDir
)

func (k ListingErrorKind) String() string {
	switch k {
	case ListDir:
		return "list"
	case CurrentDir:
		return "current-dir"
	default:
		return "ListingErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ListingError reports a failed directory read.
type ListingError struct {
	Kind ListingErrorKind
	Host string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ListingError) Error() string {
	var msg string
	switch e.Kind {
	case CurrentDir:
		msg = "remotefs: could not read the current folder on " + e.Host
	default:
		msg = fmt.Sprintf("remotefs: could not list folder %q on %s", e.Path, e.Host)
	}
	return withCause(msg, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

// FileSystemErrorKind tells which remote path operation failed.
type FileSystemErrorKind int

const (
	CreateFolder FileSystemErrorKind = iota
	RemoveFolder
	ChangeFolder
	DeleteFile
	RenameFile
	ChangeMode
	SizeQuery
	ModTimeQuery
)

func (k FileSystemErrorKind) String() string {
	switch k {
	case CreateFolder:
		return "create-folder"
	case RemoveFolder:
		return "remove-folder"
	case ChangeFolder:
		return "change-folder"
	case DeleteFile:
		return "delete-file"
	case RenameFile:
		return "rename"
	case ChangeMode:
		return "chmod"
	case SizeQuery:
		return "size"
	case ModTimeQuery:
		return "mdtm"
	default:
		return "FileSystemErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// FileSystemError reports a failed operation on a remote path.
type FileSystemError struct {
	Kind FileSystemErrorKind
	Host string
	Path string

	// NewPath is the rename target.
	NewPath string

	// Mode is the requested permission bits for ChangeMode.
	Mode os.FileMode

	Err error
}

// Error implements the error interface.
func (e *FileSystemError) Error() string {
	var msg string
	switch e.Kind {
	case CreateFolder:
		msg = fmt.Sprintf("remotefs: could not create folder %q", e.Path)
	case RemoveFolder:
		msg = fmt.Sprintf("remotefs: could not remove folder %q", e.Path)
	case ChangeFolder:
		msg = fmt.Sprintf("remotefs: could not change to folder %q", e.Path)
	case DeleteFile:
		msg = fmt.Sprintf("remotefs: could not delete %q", e.Path)
	case RenameFile:
		msg = fmt.Sprintf("remotefs: could not rename %q to %q", e.Path, e.NewPath)
	case ChangeMode:
		msg = fmt.Sprintf("remotefs: could not change mode of %q to %04o", e.Path, e.Mode.Perm())
	case SizeQuery:
		msg = fmt.Sprintf("remotefs: could not get the size of %q", e.Path)
	case ModTimeQuery:
		msg = fmt.Sprintf("remotefs: could not get the modification time of %q", e.Path)
	default:
		msg = fmt.Sprintf("remotefs: operation on %q failed", e.Path)
	}
	return withCause(msg+" on "+e.Host, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

// Direction tells whether a transfer was a download or an upload.
type Direction int

const (
	Download Direction = iota
	Upload
)

func (d Direction) String() string {
	if d == Upload {
		return "upload"
	}
	return "download"
}

// TransferError reports a failed get or put.
type TransferError struct {
	Direction Direction
	Host      string
	Remote    string
	Local     string
	Mode      transport.TransferMode

	// Async is set when the transfer ran as a continuation loop.
	Async bool

	Err error
}

// Error implements the error interface.
func (e *TransferError) Error() string {
	var msg string
	if e.Direction == Upload {
		msg = fmt.Sprintf("remotefs: could not upload %q to %q on %s (%s)", e.Local, e.Remote, e.Host, e.Mode)
	} else {
		msg = fmt.Sprintf("remotefs: could not download %q from %s to %q (%s)", e.Remote, e.Host, e.Local, e.Mode)
	}
	return withCause(msg, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// CommandKind tells how Execute dispatched a command.
type CommandKind int

const (
	CommandRaw CommandKind = iota
	CommandSite
	CommandExec
)

func (k CommandKind) String() string {
	switch k {
	case CommandRaw:
		return "raw"
	case CommandSite:
		return "site"
	case CommandExec:
		return "exec"
	default:
		return "CommandKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// CommandExecutionError reports a failed site, exec or raw command.
type CommandExecutionError struct {
	Kind    CommandKind
	Host    string
	Command string
	Err     error
}

// Error implements the error interface.
func (e *CommandExecutionError) Error() string {
	msg := fmt.Sprintf("remotefs: %s command %q failed on %s", e.Kind, e.Command, e.Host)
	return withCause(msg, e.Err)
}

func (e *CommandExecutionError) Unwrap() error { return e.Err }

func withCause(msg string, err error) string {
	if err == nil {
		return msg
	}
	return msg + ": " + err.Error()
}

func hostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
