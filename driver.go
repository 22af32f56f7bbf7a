package remotefs

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gonzalop/remotefs/internal/ftpconn"
	"github.com/gonzalop/remotefs/internal/sftpconn"
	"github.com/gonzalop/remotefs/transport"
)

// State is the connection state of a driver.
type State int

const (
	Disconnected State = iota
	Connected
	Authenticated
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Authenticated:
		return "authenticated"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// RemoteDriver is the set of operations every protocol driver offers.
//
// Apart from Connect, Login and Close, every operation connects and logs in
// on demand unless the driver was built with WithManualLifecycle. Failures
// are always one of the error types of this package.
type RemoteDriver interface {
	Connect() error
	Login() error
	Close() error
	State() State

	Ls(path string, full, recursive bool) (Listing, error)
	Mkdir(dir string) error
	Rmdir(dir string) error
	Delete(path string) error
	Rename(oldPath, newPath string) error
	Chdir(dir string) (string, error)
	Chmod(mode os.FileMode, file string) error
	Pwd() (string, error)
	Size(path string) (int64, error)
	Mdtm(path string) (time.Time, error)
	FileExists(path string) (bool, error)

	Get(remote string, opts ...TransferOption) (string, error)
	Put(local string, opts ...TransferOption) (string, error)

	Execute(command string, raw bool) (CommandResult, error)
}

var _ RemoteDriver = (*Driver)(nil)

// Driver implements RemoteDriver on top of a transport.Transport.
//
// A Driver owns one connection and is not safe for concurrent use.
type Driver struct {
	opts   ConnectionOptions
	set    settings
	cfg    *config
	dial   transport.DialFunc
	logger *slog.Logger

	conn    transport.Transport
	state   State
	dialect Dialect
	passive bool

	// cwd is the working folder, empty when unknown.
	cwd string

	ec errorContext
}

// NewDriver returns the driver for o.Protocol.
func NewDriver(o ConnectionOptions, opts ...Option) (*Driver, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newDriver(o, cfg)
}

// NewFTPDriver returns a driver for plain FTP.
func NewFTPDriver(o ConnectionOptions, opts ...Option) (*Driver, error) {
	o.Protocol = ProtocolFTP
	return NewDriver(o, opts...)
}

// NewFTPSDriver returns a driver for FTP over TLS. TLS is implicit on port
// 990 and explicit (AUTH TLS) elsewhere unless the tls option says otherwise.
func NewFTPSDriver(o ConnectionOptions, opts ...Option) (*Driver, error) {
	o.Protocol = ProtocolFTPS
	return NewDriver(o, opts...)
}

// NewSFTPDriver returns a driver for SFTP. Host keys are checked against
// the known_hosts option.
func NewSFTPDriver(o ConnectionOptions, opts ...Option) (*Driver, error) {
	o.Protocol = ProtocolSFTP
	return NewDriver(o, opts...)
}

func newDriver(o ConnectionOptions, cfg *config) (*Driver, error) {
	set, err := parseSettings(o)
	if err != nil {
		return nil, err
	}

	dial := cfg.dial
	if dial == nil {
		switch o.Protocol {
		case ProtocolFTP, ProtocolFTPS:
			dial = ftpconn.Dial
		case ProtocolSFTP:
			dial = sftpconn.Dial
		default:
			return nil, &ConfigurationError{Reason: ReasonUnknownProtocol}
		}
	}

	return &Driver{
		opts:    o,
		set:     set,
		cfg:     cfg,
		dial:    dial,
		logger:  cfg.logger.With("protocol", string(o.Protocol), "host", o.Host),
		passive: set.passive,
	}, nil
}

// Options returns the connection options the driver was built from.
func (d *Driver) Options() ConnectionOptions {
	return d.opts
}

// State implements RemoteDriver.
func (d *Driver) State() State {
	return d.state
}

// Dialect returns the listing dialect selected at connect time.
func (d *Driver) Dialect() Dialect {
	return d.dialect
}

// Connect opens the connection and probes the server's system type to pick
// the listing dialect. It does nothing when already connected.
func (d *Driver) Connect() error {
	if d.state != Disconnected {
		return nil
	}

	d.prepare(OpConnect)
	d.logger.Debug("connecting", "op", OpConnect, "addr", d.opts.Addr())
	cfg := d.set.transportConfig(d.opts, d.logger)
	cfg.Passive = d.passive
	conn, err := d.dial(cfg)
	if err != nil {
		return d.fail(err)
	}
	d.conn = conn
	d.state = Connected
	d.cwd = ""

	d.dialect = DialectUnknown
	d.prepare(OpSystemType)
	d.bestEffort(OpSystemType, func() error {
		syst, err := conn.SystemType()
		if err != nil {
			return err
		}
		d.dialect = DialectFromSystemType(syst)
		return nil
	})
	d.logger.Debug("connected", "dialect", d.dialect)
	return nil
}

// Login authenticates with the stored credentials, connecting first when
// needed. Passive mode is then requested on a best-effort basis, and the
// driver changes into the connection string's folder if it named one.
func (d *Driver) Login() error {
	switch d.state {
	case Authenticated:
		return nil
	case Disconnected:
		if d.cfg.manual {
			return &ConnectionError{Kind: ConnNotConnected, Host: d.opts.Host, Port: d.opts.Port}
		}
		if err := d.Connect(); err != nil {
			return err
		}
	}

	d.prepare(OpLogin)
	d.logger.Debug("logging in", "op", OpLogin, "user", d.opts.User)
	if err := d.conn.Login(d.opts.User, d.opts.Password); err != nil {
		return d.fail(err)
	}
	d.state = Authenticated

	if d.passive {
		d.prepare(OpPassive).passive = true
		d.bestEffort(OpPassive, func() error { return d.conn.SetPassive(true) })
	}

	if d.opts.Dir != "" {
		d.prepare(OpChangeFolder).path = d.opts.Dir
		if err := d.conn.ChangeDir(d.opts.Dir); err != nil {
			return d.fail(err)
		}
	}
	return nil
}

// Close ends the connection. The driver is Disconnected afterwards even
// when the transport reports an error.
func (d *Driver) Close() error {
	if d.state == Disconnected {
		return nil
	}
	conn := d.conn
	d.conn, d.state, d.cwd = nil, Disconnected, ""

	d.prepare(OpClose)
	d.logger.Debug("closing", "op", OpClose)
	if err := conn.Close(); err != nil {
		return d.fail(err)
	}
	return nil
}

// closeQuietly closes the connection, reporting failures only to the
// diagnostic handler.
func (d *Driver) closeQuietly() {
	d.bestEffort(OpCleanup, d.Close)
}

// SetPassive switches between passive and active data connections. When
// disconnected the setting is applied at the next login.
func (d *Driver) SetPassive(on bool) error {
	d.passive = on
	if d.state == Disconnected {
		return nil
	}
	d.prepare(OpPassive).passive = on
	if err := d.conn.SetPassive(on); err != nil {
		return d.fail(err)
	}
	return nil
}

// ensureReady brings the driver to Authenticated, or reports why it is not
// when the lifecycle is managed by the caller.
func (d *Driver) ensureReady() error {
	if d.state == Authenticated {
		return nil
	}
	if d.cfg.manual {
		kind := ConnNotAuthenticated
		if d.state == Disconnected {
			kind = ConnNotConnected
		}
		return &ConnectionError{Kind: kind, Host: d.opts.Host, Port: d.opts.Port}
	}
	return d.Login()
}

func (d *Driver) converter() ListingConverter {
	return ConverterFor(d.dialect, d.cfg.now)
}

// prepare resets the error context for op and returns it so the caller can
// fill in the operation's fields.
func (d *Driver) prepare(op Op) *errorContext {
	d.ec = errorContext{
		op:   op,
		host: d.opts.Host,
		port: d.opts.Port,
		user: d.opts.User,
	}
	return &d.ec
}

// fail classifies err against the current error context.
func (d *Driver) fail(err error) error {
	typed := classify(d.ec, err)
	if typed == nil {
		d.cfg.diagnose(d.ec.op, err)
		return nil
	}
	d.logger.Debug("operation failed", "op", d.ec.op, "error", err)
	return typed
}

// bestEffort runs fn and reports whether it succeeded. A failure goes to
// the diagnostic handler and is otherwise dropped.
func (d *Driver) bestEffort(op Op, fn func() error) bool {
	err := fn()
	if err == nil {
		return true
	}
	ec := d.ec
	ec.op = op
	if typed := classify(ec, err); typed != nil {
		err = typed
	}
	d.cfg.diagnose(op, err)
	return false
}
