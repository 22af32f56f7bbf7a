package sftpconn

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
)

// recentWindow is how far back "ls -l" prints a clock time instead of a
// year.
const recentWindow = 182 * 24 * time.Hour

// longLine renders fi the way "ls -l" does. Owner and group are numeric
// ids; SFTP v3 does not carry names.
func (c *Conn) longLine(dir string, fi os.FileInfo) string {
	owner, group := "0", "0"
	if st, ok := fi.Sys().(*sftp.FileStat); ok {
		owner = strconv.FormatUint(uint64(st.UID), 10)
		group = strconv.FormatUint(uint64(st.GID), 10)
	}

	name := fi.Name()
	if fi.Mode()&os.ModeSymlink != 0 && c.sc != nil {
		if target, err := c.sc.ReadLink(path.Join(dir, name)); err == nil {
			name += " -> " + target
		}
	}
	return formatLong(fi.Mode(), owner, group, fi.Size(), fi.ModTime(), name, c.now())
}

func formatLong(mode os.FileMode, owner, group string, size int64, mtime time.Time, name string, now time.Time) string {
	mtime = mtime.UTC()
	stamp := mtime.Format("Jan _2 15:04")
	if age := now.Sub(mtime); age > recentWindow || age < -24*time.Hour {
		stamp = mtime.Format("Jan _2  2006")
	}
	return fmt.Sprintf("%s 1 %-8s %-8s %12d %s %s", unixMode(mode), owner, group, size, stamp, name)
}

// unixMode renders mode as the ten-character "ls -l" permission string.
func unixMode(mode os.FileMode) string {
	var b [10]byte
	switch {
	case mode&os.ModeDir != 0:
		b[0] = 'd'
	case mode&os.ModeSymlink != 0:
		b[0] = 'l'
	case mode&os.ModeNamedPipe != 0:
		b[0] = 'p'
	case mode&os.ModeSocket != 0:
		b[0] = 's'
	case mode&os.ModeCharDevice != 0:
		b[0] = 'c'
	case mode&os.ModeDevice != 0:
		b[0] = 'b'
	default:
		b[0] = '-'
	}

	const rwx = "rwxrwxrwx"
	for i := range 9 {
		if mode&(1<<uint(8-i)) != 0 {
			b[i+1] = rwx[i]
		} else {
			b[i+1] = '-'
		}
	}

	special := func(i int, set bool, lower, upper byte) {
		if !set {
			return
		}
		if b[i] == '-' {
			b[i] = upper
		} else {
			b[i] = lower
		}
	}
	special(3, mode&os.ModeSetuid != 0, 's', 'S')
	special(6, mode&os.ModeSetgid != 0, 's', 'S')
	special(9, mode&os.ModeSticky != 0, 't', 'T')
	return string(b[:])
}
