// Package sftpconn implements transport.Transport for SFTP on top of
// github.com/pkg/sftp and golang.org/x/crypto/ssh.
//
// SFTP has no listing text of its own, so List renders "ls -l" style lines
// that the Unix listing converter reads back. SITE commands do not exist;
// Exec and Raw run a command through an SSH session instead.
package sftpconn

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/gonzalop/remotefs/transport"
)

// systemType is reported to the driver so listings are read as Unix.
const systemType = "UNIX Type: L8 (SFTP)"

var (
	errNotLoggedIn = errors.New("sftpconn: not logged in")
	errNotDir      = errors.New("sftpconn: not a directory")
)

// Conn is one SSH connection carrying an SFTP session.
type Conn struct {
	cfg    transport.Config
	logger *slog.Logger

	raw net.Conn
	ssh *ssh.Client
	sc  *sftp.Client

	cwd string
	now func() time.Time
}

var _ transport.Transport = (*Conn)(nil)

// Dial opens the TCP connection. The SSH handshake happens in Login, when
// the credentials are known. It implements transport.DialFunc.
func Dial(cfg transport.Config) (transport.Transport, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	raw, err := net.DialTimeout("tcp", cfg.Addr(), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Conn{cfg: cfg, logger: logger, raw: raw, now: time.Now}, nil
}

// attach makes sc the session's SFTP client and starts in its working
// folder.
func (c *Conn) attach(sc *sftp.Client) {
	c.sc = sc
	c.cwd = "/"
	if wd, err := sc.Getwd(); err == nil && wd != "" {
		c.cwd = wd
	}
}

// SystemType implements transport.Transport.
func (c *Conn) SystemType() (string, error) {
	return systemType, nil
}

// Login runs the SSH handshake with password authentication and starts
// the SFTP subsystem.
func (c *Conn) Login(user, password string) error {
	if c.sc != nil {
		return nil
	}
	hostKey, err := c.hostKeyCallback()
	if err != nil {
		return err
	}
	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKey,
		Timeout:         c.cfg.Timeout,
	}

	if c.cfg.Timeout > 0 {
		if err := c.raw.SetDeadline(time.Now().Add(c.cfg.Timeout)); err != nil {
			return err
		}
	}
	conn, chans, reqs, err := ssh.NewClientConn(c.raw, c.cfg.Addr(), config)
	if err != nil {
		return err
	}
	if err := c.raw.SetDeadline(time.Time{}); err != nil {
		conn.Close()
		return err
	}
	c.ssh = ssh.NewClient(conn, chans, reqs)
	c.logger.Debug("ssh handshake complete", "server_version", string(conn.ServerVersion()))

	sc, err := sftp.NewClient(c.ssh)
	if err != nil {
		c.ssh.Close()
		c.ssh = nil
		return fmt.Errorf("sftpconn: start sftp subsystem: %w", err)
	}
	c.attach(sc)
	return nil
}

func (c *Conn) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.cfg.InsecureHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if c.cfg.KnownHostsFile == "" {
		return nil, errors.New("sftpconn: no known_hosts file configured")
	}
	return knownhosts.New(c.cfg.KnownHostsFile)
}

// SetPassive implements transport.Transport. SFTP multiplexes data over
// the SSH connection, so both modes are accepted and ignored.
func (c *Conn) SetPassive(bool) error {
	return nil
}

// Close implements transport.Transport.
func (c *Conn) Close() error {
	var errs []error
	if c.sc != nil {
		errs = append(errs, c.sc.Close())
	}
	if c.ssh != nil {
		errs = append(errs, c.ssh.Close())
	} else if c.raw != nil {
		errs = append(errs, c.raw.Close())
	}
	c.sc, c.ssh, c.raw = nil, nil, nil
	return errors.Join(errs...)
}

func (c *Conn) client() (*sftp.Client, error) {
	if c.sc == nil {
		return nil, errNotLoggedIn
	}
	return c.sc, nil
}

// resolve makes p absolute against the tracked working folder.
func (c *Conn) resolve(p string) string {
	switch {
	case p == "":
		return c.cwd
	case path.IsAbs(p):
		return path.Clean(p)
	default:
		return path.Join(c.cwd, p)
	}
}

// splitListArg separates a leading "-R" flag from the path.
func splitListArg(arg string) (dir string, recursive bool) {
	arg = strings.TrimSpace(arg)
	if arg == "-R" {
		return "", true
	}
	if rest, ok := strings.CutPrefix(arg, "-R "); ok {
		return strings.TrimSpace(rest), true
	}
	return arg, false
}

// List renders the folder as "ls -l" lines. A "-R" prefix lists every
// subfolder too, each under a "dir:" header.
func (c *Conn) List(arg string) ([]string, error) {
	sc, err := c.client()
	if err != nil {
		return nil, err
	}
	dir, recursive := splitListArg(arg)
	root := c.resolve(dir)

	var lines []string
	var walk func(dir string, header bool) error
	walk = func(dir string, header bool) error {
		infos, err := sc.ReadDir(dir)
		if err != nil {
			return err
		}
		if header {
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, dir+":")
		}
		for _, fi := range infos {
			lines = append(lines, c.longLine(dir, fi))
		}
		if !recursive {
			return nil
		}
		for _, fi := range infos {
			if fi.IsDir() {
				if err := walk(path.Join(dir, fi.Name()), true); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(root, recursive); err != nil {
		return nil, err
	}
	return lines, nil
}

// NameList returns entry names. Recursive name lists use paths relative to
// the listed folder.
func (c *Conn) NameList(arg string) ([]string, error) {
	sc, err := c.client()
	if err != nil {
		return nil, err
	}
	dir, recursive := splitListArg(arg)
	root := c.resolve(dir)

	var names []string
	var walk func(rel string) error
	walk = func(rel string) error {
		infos, err := sc.ReadDir(path.Join(root, rel))
		if err != nil {
			return err
		}
		for _, fi := range infos {
			name := path.Join(rel, fi.Name())
			names = append(names, name)
			if recursive && fi.IsDir() {
				if err := walk(name); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(""); err != nil {
		return nil, err
	}
	return names, nil
}

// CurrentDir implements transport.Transport.
func (c *Conn) CurrentDir() (string, error) {
	if _, err := c.client(); err != nil {
		return "", err
	}
	return c.cwd, nil
}

// ChangeDir implements transport.Transport.
func (c *Conn) ChangeDir(p string) error {
	sc, err := c.client()
	if err != nil {
		return err
	}
	target := c.resolve(p)
	fi, err := sc.Stat(target)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", errNotDir, target)
	}
	c.cwd = target
	return nil
}

// MakeDir implements transport.Transport.
func (c *Conn) MakeDir(p string) error {
	sc, err := c.client()
	if err != nil {
		return err
	}
	return sc.Mkdir(c.resolve(p))
}

// RemoveDir implements transport.Transport.
func (c *Conn) RemoveDir(p string) error {
	sc, err := c.client()
	if err != nil {
		return err
	}
	return sc.RemoveDirectory(c.resolve(p))
}

// Delete implements transport.Transport.
func (c *Conn) Delete(p string) error {
	sc, err := c.client()
	if err != nil {
		return err
	}
	return sc.Remove(c.resolve(p))
}

// Rename implements transport.Transport.
func (c *Conn) Rename(from, to string) error {
	sc, err := c.client()
	if err != nil {
		return err
	}
	return sc.Rename(c.resolve(from), c.resolve(to))
}

// Chmod implements transport.Transport.
func (c *Conn) Chmod(p string, mode os.FileMode) error {
	sc, err := c.client()
	if err != nil {
		return err
	}
	return sc.Chmod(c.resolve(p), mode)
}

// Size implements transport.Transport.
func (c *Conn) Size(p string) (int64, error) {
	fi, err := c.stat(p)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// ModTime implements transport.Transport. Folders have no modification
// time here, matching what FTP servers answer to MDTM.
func (c *Conn) ModTime(p string) (time.Time, error) {
	fi, err := c.stat(p)
	if err != nil {
		return time.Time{}, err
	}
	if fi.IsDir() {
		return time.Time{}, fmt.Errorf("sftpconn: %s is a directory", c.resolve(p))
	}
	return fi.ModTime().UTC(), nil
}

func (c *Conn) stat(p string) (os.FileInfo, error) {
	sc, err := c.client()
	if err != nil {
		return nil, err
	}
	return sc.Stat(c.resolve(p))
}

// Retrieve implements transport.Transport. The mode is ignored: SFTP
// always transfers bytes unchanged.
func (c *Conn) Retrieve(remote string, w io.Writer, _ transport.TransferMode) error {
	sc, err := c.client()
	if err != nil {
		return err
	}
	f, err := sc.Open(c.resolve(remote))
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(w, f)
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// Store implements transport.Transport. The mode is ignored.
func (c *Conn) Store(remote string, r io.Reader, _ transport.TransferMode) error {
	sc, err := c.client()
	if err != nil {
		return err
	}
	f, err := sc.Create(c.resolve(remote))
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// NewRetrieve implements transport.Transport.
func (c *Conn) NewRetrieve(remote string, w io.Writer, _ transport.TransferMode) transport.Transfer {
	var f *sftp.File
	open := func() (io.Writer, io.Reader, error) {
		sc, err := c.client()
		if err != nil {
			return nil, nil, err
		}
		f, err = sc.Open(c.resolve(remote))
		if err != nil {
			return nil, nil, err
		}
		return w, f, nil
	}
	return transport.NewStepper(c.cfg.ChunkSize, open, closing(&f))
}

// NewStore implements transport.Transport.
func (c *Conn) NewStore(remote string, r io.Reader, _ transport.TransferMode) transport.Transfer {
	var f *sftp.File
	open := func() (io.Writer, io.Reader, error) {
		sc, err := c.client()
		if err != nil {
			return nil, nil, err
		}
		f, err = sc.Create(c.resolve(remote))
		if err != nil {
			return nil, nil, err
		}
		return f, r, nil
	}
	return transport.NewStepper(c.cfg.ChunkSize, open, closing(&f))
}

// closing returns a FinishFunc that closes *f and reports the copy error
// first.
func closing(f **sftp.File) transport.FinishFunc {
	return func(copyErr error) error {
		closeErr := (*f).Close()
		if copyErr != nil {
			return copyErr
		}
		return closeErr
	}
}

// Exec runs command in an SSH session. A non-zero exit status is reported
// as ok == false, not as an error.
func (c *Conn) Exec(command string) (bool, error) {
	_, err := c.run(command)
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return err == nil, err
}

// Site implements transport.Transport. SFTP has no SITE command.
func (c *Conn) Site(string) (bool, error) {
	return false, transport.ErrUnsupported
}

// Raw runs command in an SSH session and returns its combined output.
func (c *Conn) Raw(command string) ([]string, error) {
	out, err := c.run(command)
	if err != nil {
		return nil, err
	}
	out = bytes.TrimRight(out, "\n")
	if len(out) == 0 {
		return nil, nil
	}
	return strings.Split(string(out), "\n"), nil
}

func (c *Conn) run(command string) ([]byte, error) {
	if c.ssh == nil {
		return nil, errNotLoggedIn
	}
	session, err := c.ssh.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.Close()
	return session.CombinedOutput(command)
}
