package remotefs

import (
	"os"
	"strings"
	"time"
)

// Ls lists path. A full listing goes through the converter of the server's
// dialect; otherwise only names are requested and IsDir is known just for
// "." and "..". Recursive listings pass "-R" to the server.
//
// Example:
//
//	l, err := d.Ls("/pub", true, false)
//	if err != nil {
//	    return err
//	}
//	for _, e := range l.Entries {
//	    fmt.Printf("%s %d %v\n", e.Name, e.Size, e.IsDir)
//	}
func (d *Driver) Ls(path string, full, recursive bool) (Listing, error) {
	if err := d.ensureReady(); err != nil {
		return Listing{}, err
	}

	arg := path
	if recursive {
		arg = strings.TrimSpace("-R " + path)
	}

	var (
		lines []string
		err   error
	)
	if full {
		d.prepare(OpList).path = path
		lines, err = d.conn.List(arg)
	} else {
		d.prepare(OpNameList).path = path
		lines, err = d.conn.NameList(arg)
	}
	if err != nil {
		return Listing{}, d.fail(err)
	}

	var conv ListingConverter = SimpleConverter{}
	if full {
		conv = d.converter()
	}
	l := conv.Convert(lines)
	if l.Skipped > 0 {
		d.logger.Debug("skipped unparseable listing lines", "op", d.ec.op, "path", path, "skipped", l.Skipped)
	}
	return l, nil
}

// Mkdir creates a folder.
func (d *Driver) Mkdir(dir string) error {
	if err := d.ensureReady(); err != nil {
		return err
	}
	d.prepare(OpCreateFolder).path = dir
	if err := d.conn.MakeDir(dir); err != nil {
		return d.fail(err)
	}
	return nil
}

// Rmdir removes an empty folder.
func (d *Driver) Rmdir(dir string) error {
	if err := d.ensureReady(); err != nil {
		return err
	}
	d.prepare(OpRemoveFolder).path = dir
	if err := d.conn.RemoveDir(dir); err != nil {
		return d.fail(err)
	}
	d.cwd = ""
	return nil
}

// Delete removes a file.
func (d *Driver) Delete(path string) error {
	if err := d.ensureReady(); err != nil {
		return err
	}
	d.prepare(OpDeleteFile).path = path
	if err := d.conn.Delete(path); err != nil {
		return d.fail(err)
	}
	return nil
}

// Rename moves oldPath to newPath.
func (d *Driver) Rename(oldPath, newPath string) error {
	if err := d.ensureReady(); err != nil {
		return err
	}
	ec := d.prepare(OpRename)
	ec.path, ec.newPath = oldPath, newPath
	if err := d.conn.Rename(oldPath, newPath); err != nil {
		return d.fail(err)
	}
	d.cwd = ""
	return nil
}

// Chdir changes the working folder and returns the new one as the server
// reports it. When the server cannot report it, dir is returned.
func (d *Driver) Chdir(dir string) (string, error) {
	if err := d.ensureReady(); err != nil {
		return "", err
	}
	d.prepare(OpChangeFolder).path = dir
	if err := d.conn.ChangeDir(dir); err != nil {
		return "", d.fail(err)
	}
	d.cwd = ""

	cwd := dir
	d.prepare(OpCurrentFolder)
	if d.bestEffort(OpCurrentFolder, func() error {
		p, err := d.conn.CurrentDir()
		cwd = p
		return err
	}) {
		d.cwd = cwd
	} else {
		cwd = dir
	}
	return cwd, nil
}

// Chmod sets the permission bits of file.
func (d *Driver) Chmod(mode os.FileMode, file string) error {
	if err := d.ensureReady(); err != nil {
		return err
	}
	ec := d.prepare(OpChmod)
	ec.mode, ec.path = mode, file
	if err := d.conn.Chmod(file, mode); err != nil {
		return d.fail(err)
	}
	return nil
}

// Pwd returns the working folder.
func (d *Driver) Pwd() (string, error) {
	if err := d.ensureReady(); err != nil {
		return "", err
	}
	if d.cwd != "" {
		return d.cwd, nil
	}
	d.prepare(OpCurrentFolder)
	cwd, err := d.conn.CurrentDir()
	if err != nil {
		return "", d.fail(err)
	}
	d.cwd = cwd
	return cwd, nil
}

// Size returns the size of a file in bytes.
func (d *Driver) Size(path string) (int64, error) {
	if err := d.ensureReady(); err != nil {
		return 0, err
	}
	d.prepare(OpSize).path = path
	size, err := d.conn.Size(path)
	if err != nil {
		return 0, d.fail(err)
	}
	return size, nil
}

// Mdtm returns the modification time of a file.
func (d *Driver) Mdtm(path string) (time.Time, error) {
	if err := d.ensureReady(); err != nil {
		return time.Time{}, err
	}
	d.prepare(OpModTime).path = path
	t, err := d.conn.ModTime(path)
	if err != nil {
		return time.Time{}, d.fail(err)
	}
	return t, nil
}

// FileExists reports whether path names a file or a folder. Files answer a
// modification time query; folders are probed by changing into them, after
// which the previous working folder is restored.
func (d *Driver) FileExists(path string) (bool, error) {
	if err := d.ensureReady(); err != nil {
		return false, err
	}

	d.prepare(OpProbeModTime).path = path
	if d.bestEffort(OpProbeModTime, func() error {
		_, err := d.conn.ModTime(path)
		return err
	}) {
		return true, nil
	}

	prev := d.cwd
	if prev == "" {
		d.prepare(OpCurrentFolder)
		d.bestEffort(OpCurrentFolder, func() error {
			p, err := d.conn.CurrentDir()
			prev = p
			return err
		})
	}

	d.prepare(OpProbeFolder).path = path
	if !d.bestEffort(OpProbeFolder, func() error { return d.conn.ChangeDir(path) }) {
		return false, nil
	}
	d.cwd = ""
	if prev != "" {
		d.prepare(OpRestoreFolder).path = prev
		if d.bestEffort(OpRestoreFolder, func() error { return d.conn.ChangeDir(prev) }) {
			d.cwd = prev
		}
	}
	return true, nil
}
