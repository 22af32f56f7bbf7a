package remotefs

import (
	"strconv"
	"strings"
	"time"
)

// FileEntry is one record of a directory listing, whatever the dialect it
// was parsed from.
type FileEntry struct {
	// Name is the file name, possibly "." or "..". For recursive name-only
	// listings it may contain a relative path.
	Name string

	// Rights is the permission string as the server printed it, empty when
	// the dialect has none.
	Rights string

	Owner string
	Group string

	// Size is the size in bytes, or -1 when unknown.
	Size int64

	// ModTime is the zero time when the listing carries no timestamp.
	ModTime time.Time

	IsDir bool

	// Target is the destination of a symbolic link.
	Target string

	// Dir is the folder a recursive listing section was printed for, empty
	// for the top-level section.
	Dir string

	// Raw is the unparsed listing line.
	Raw string
}

// HasModTime reports whether the listing provided a timestamp.
func (e FileEntry) HasModTime() bool {
	return !e.ModTime.IsZero()
}

// IsLink reports whether the entry is a symbolic link.
func (e FileEntry) IsLink() bool {
	return strings.HasPrefix(e.Rights, "l")
}

// Listing is the result of converting a raw directory listing.
type Listing struct {
	Entries []FileEntry

	// Skipped counts lines that did not match the dialect's grammar. They
	// are left out of Entries.
	Skipped int
}

// Names returns the entry names in listing order.
func (l Listing) Names() []string {
	names := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		names[i] = e.Name
	}
	return names
}

// ListingConverter turns raw listing lines into entries. Implementations do
// no I/O and return equal results for equal input.
type ListingConverter interface {
	Convert(lines []string) Listing
}

// Dialect is the listing format a server produces.
type Dialect int

const (
	// DialectUnknown is used when the system type probe fails or is not
	// recognized. It lists like DialectUnix.
	DialectUnknown Dialect = iota
	DialectUnix
	DialectWindows
)

func (d Dialect) String() string {
	switch d {
	case DialectUnknown:
		return "unknown"
	case DialectUnix:
		return "unix"
	case DialectWindows:
		return "windows"
	default:
		return "Dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

// DialectFromSystemType maps a SYST reply to a dialect.
//
//	"UNIX Type: L8"      -> DialectUnix
//	"Windows_NT"         -> DialectWindows
//	"MACOS Peter's Server" -> DialectUnknown
func DialectFromSystemType(syst string) Dialect {
	s := strings.ToUpper(strings.TrimSpace(syst))
	switch {
	case strings.HasPrefix(s, "WINDOWS"):
		return DialectWindows
	case strings.Contains(s, "UNIX"):
		return DialectUnix
	default:
		return DialectUnknown
	}
}

// ConverterFor returns the full-listing converter for d. now anchors
// year-less Unix dates; nil means time.Now.
func ConverterFor(d Dialect, now func() time.Time) ListingConverter {
	if d == DialectWindows {
		return WindowsConverter{}
	}
	return UnixConverter{Now: now}
}

// SimpleConverter handles name-only listings, one name per line. Whether an
// entry is a folder cannot be told from a bare name, so IsDir is only set
// for "." and "..".
type SimpleConverter struct{}

// Convert implements ListingConverter.
func (SimpleConverter) Convert(lines []string) Listing {
	var l Listing
	for _, line := range lines {
		name := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(name) == "" {
			continue
		}
		l.Entries = append(l.Entries, FileEntry{
			Name:  name,
			Size:  -1,
			IsDir: name == "." || name == "..",
			Raw:   line,
		})
	}
	return l
}

// field is a whitespace-separated token and its byte offset in the line.
type field struct {
	text  string
	start int
}

// splitFields works like strings.Fields but remembers where each field
// starts, so the trailing name can be cut from the original line with its
// inner spacing intact.
func splitFields(line string) []field {
	var fields []field
	start := -1
	for i := 0; i < len(line); i++ {
		space := line[i] == ' ' || line[i] == '\t'
		switch {
		case !space && start < 0:
			start = i
		case space && start >= 0:
			fields = append(fields, field{text: line[start:i], start: start})
			start = -1
		}
	}
	if start >= 0 {
		fields = append(fields, field{text: line[start:], start: start})
	}
	return fields
}

// rest returns the line from the start of fields[i] on.
func rest(line string, fields []field, i int) string {
	return line[fields[i].start:]
}

// restAfter returns the line past fields[i] and the one blank that ends it,
// keeping any further blanks.
func restAfter(line string, fields []field, i int) string {
	return line[fields[i].start+len(fields[i].text)+1:]
}
