package remotefs

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// EventKind names a completed client operation.
type EventKind int

const (
	ConnectionOpened EventKind = iota
	ConnectionClosed
	LoginSucceeded
	FolderCreated
	FolderDeleted
	FolderChanged
	FileDownloaded
	FileUploaded
	FileDeleted
	FileRenamed
	FileModeChanged
)

var eventKindNames = [...]string{
	ConnectionOpened: "connection-opened",
	ConnectionClosed: "connection-closed",
	LoginSucceeded:   "login-succeeded",
	FolderCreated:    "folder-created",
	FolderDeleted:    "folder-deleted",
	FolderChanged:    "folder-changed",
	FileDownloaded:   "file-downloaded",
	FileUploaded:     "file-uploaded",
	FileDeleted:      "file-deleted",
	FileRenamed:      "file-renamed",
	FileModeChanged:  "file-mode-changed",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "EventKind(" + strconv.Itoa(int(k)) + ")"
}

// Event describes an operation that completed successfully. Only the
// fields that apply to Kind are set.
type Event struct {
	ID      uuid.UUID
	Session uuid.UUID
	Time    time.Time
	Kind    EventKind
	Host    string

	// User is set for LoginSucceeded.
	User string

	// Path is the folder or remote file; NewPath is the rename target.
	Path    string
	NewPath string

	// Local is the local file of a transfer.
	Local string

	// Mode is the permission bits of FileModeChanged.
	Mode os.FileMode
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn to receive events. Events are delivered on the
// goroutine that ran the operation, after it returned, in the order the
// operations completed. Calling cancel stops delivery.
func (c *Client) Subscribe(fn func(Event)) (cancel func()) {
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

func (c *Client) emit(e Event) {
	if len(c.subs) == 0 {
		return
	}
	e.ID = uuid.New()
	e.Session = c.session
	e.Time = c.cfg.now()
	e.Host = c.opts.Host
	c.logger.Debug("event", "kind", e.Kind, "path", e.Path)
	for _, s := range c.subs {
		s.fn(e)
	}
}
