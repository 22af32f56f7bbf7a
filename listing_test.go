package remotefs

import (
	"reflect"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func TestUnixConverter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want FileEntry
	}{
		{
			name: "directory",
			line: "drwxr-xr-x 2 user group 4096 Jan 1 12:00 subdir",
			want: FileEntry{
				Name: "subdir", Rights: "drwxr-xr-x", Owner: "user", Group: "group",
				Size: 4096, IsDir: true,
				ModTime: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "file name with embedded space",
			line: "-rw-r--r-- 1 user group 10 Jan 1 12:00 my file.txt",
			want: FileEntry{
				Name: "my file.txt", Rights: "-rw-r--r--", Owner: "user", Group: "group",
				Size:    10,
				ModTime: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "inner spacing preserved",
			line: "-rw-r--r--   1 user  group        10 Jan  1  2023 two  spaces.txt",
			want: FileEntry{
				Name: "two  spaces.txt", Rights: "-rw-r--r--", Owner: "user", Group: "group",
				Size:    10,
				ModTime: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "leading and trailing blanks kept",
			line: "-rw-r--r-- 1 user group 10 Jan 1 12:00  leading and trailing ",
			want: FileEntry{
				Name: " leading and trailing ", Rights: "-rw-r--r--", Owner: "user", Group: "group",
				Size:    10,
				ModTime: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "symlink",
			line: "lrwxrwxrwx   1 root  root        11 Dec 20 10:30 link -> target.txt",
			want: FileEntry{
				Name: "link", Target: "target.txt", Rights: "lrwxrwxrwx", Owner: "root", Group: "root",
				Size:    11,
				ModTime: time.Date(2023, time.December, 20, 10, 30, 0, 0, time.UTC),
			},
		},
		{
			name: "symlink to folder is not a folder",
			line: "lrwxrwxrwx   1 root  root        25 Dec 20 10:30 docs -> /home/user/My Documents",
			want: FileEntry{
				Name: "docs", Target: "/home/user/My Documents", Rights: "lrwxrwxrwx", Owner: "root", Group: "root",
				Size:    25,
				ModTime: time.Date(2023, time.December, 20, 10, 30, 0, 0, time.UTC),
			},
		},
		{
			name: "no group column",
			line: "-rw-r--r--   1 owner         10 Jan  1 12:00 no-group.txt",
			want: FileEntry{
				Name: "no-group.txt", Rights: "-rw-r--r--", Owner: "owner",
				Size:    10,
				ModTime: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "octal rights",
			line: "644 1 owner group 7 Mar 3 2020 octal.txt",
			want: FileEntry{
				Name: "octal.txt", Rights: "644", Owner: "owner", Group: "group",
				Size:    7,
				ModTime: time.Date(2020, time.March, 3, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "dot entries",
			line: "drwxr-xr-x 2 user group 4096 Jun 15 11:00 ..",
			want: FileEntry{
				Name: "..", Rights: "drwxr-xr-x", Owner: "user", Group: "group",
				Size: 4096, IsDir: true,
				ModTime: time.Date(2024, time.June, 15, 11, 0, 0, 0, time.UTC),
			},
		},
	}

	c := UnixConverter{Now: fixedNow}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := c.Convert([]string{tt.line})
			if got.Skipped != 0 || len(got.Entries) != 1 {
				t.Fatalf("Convert(%q) = %d entries, %d skipped; want 1 entry", tt.line, len(got.Entries), got.Skipped)
			}
			want := tt.want
			want.Raw = tt.line
			if !reflect.DeepEqual(got.Entries[0], want) {
				t.Errorf("Convert(%q)\n got  %+v\n want %+v", tt.line, got.Entries[0], want)
			}
		})
	}
}

func TestUnixConverterRecursive(t *testing.T) {
	t.Parallel()

	lines := []string{
		"total 8",
		".:",
		"drwxr-xr-x 2 u g 4096 Jan 1 12:00 sub",
		"",
		"./sub:",
		"total 4",
		"-rw-r--r-- 1 u g 3 Jan 1 12:00 a.txt\r",
		"garbage line",
	}
	got := UnixConverter{Now: fixedNow}.Convert(lines)

	if got.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", got.Skipped)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(got.Entries))
	}
	if e := got.Entries[0]; e.Name != "sub" || e.Dir != "." || !e.IsDir {
		t.Errorf("first entry = %+v, want folder sub in .", e)
	}
	if e := got.Entries[1]; e.Name != "a.txt" || e.Dir != "./sub" || e.Size != 3 {
		t.Errorf("second entry = %+v, want a.txt in ./sub", e)
	}
}

func TestUnixConverterYearRollover(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC) }
	got := UnixConverter{Now: now}.Convert([]string{
		"-rw-r--r-- 1 u g 1 Dec 31 23:00 old.txt",
		"-rw-r--r-- 1 u g 1 Jan 2 08:00 today.txt",
	})
	if len(got.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(got.Entries))
	}
	if y := got.Entries[0].ModTime.Year(); y != 2024 {
		t.Errorf("Dec 31 resolved to %d, want 2024", y)
	}
	if y := got.Entries[1].ModTime.Year(); y != 2025 {
		t.Errorf("Jan 2 resolved to %d, want 2025", y)
	}
}

func TestWindowsConverter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want FileEntry
	}{
		{
			name: "folder",
			line: "01-01-24 12:00PM <DIR> subdir",
			want: FileEntry{Name: "subdir", IsDir: true, Size: -1,
				ModTime: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)},
		},
		{
			name: "file",
			line: "01-01-24 12:00PM 120 file.txt",
			want: FileEntry{Name: "file.txt", Size: 120,
				ModTime: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)},
		},
		{
			name: "midnight with grouped size and spaces",
			line: "12-14-23  12:22AM       1,037,794 large document.pdf",
			want: FileEntry{Name: "large document.pdf", Size: 1037794,
				ModTime: time.Date(2023, time.December, 14, 0, 22, 0, 0, time.UTC)},
		},
		{
			name: "iso date, 24h clock, lower-case marker",
			line: "2024/01/31  23:59       <dir>          Program Files",
			want: FileEntry{Name: "Program Files", IsDir: true, Size: -1,
				ModTime: time.Date(2024, time.January, 31, 23, 59, 0, 0, time.UTC)},
		},
		{
			name: "four-digit year with separate meridiem",
			line: "09/24/2024 10:30 PM 5 x.txt",
			want: FileEntry{Name: "x.txt", Size: 5,
				ModTime: time.Date(2024, time.September, 24, 22, 30, 0, 0, time.UTC)},
		},
		{
			name: "column padding dropped, trailing blank kept",
			line: "01-01-24 12:00PM       120       notes.txt ",
			want: FileEntry{Name: "notes.txt ", Size: 120,
				ModTime: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)},
		},
		{
			name: "twentieth century",
			line: "03-15-98  09:00AM  42 legacy.txt",
			want: FileEntry{Name: "legacy.txt", Size: 42,
				ModTime: time.Date(1998, time.March, 15, 9, 0, 0, 0, time.UTC)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := WindowsConverter{}.Convert([]string{tt.line})
			if got.Skipped != 0 || len(got.Entries) != 1 {
				t.Fatalf("Convert(%q) = %d entries, %d skipped; want 1 entry", tt.line, len(got.Entries), got.Skipped)
			}
			want := tt.want
			want.Raw = tt.line
			if !reflect.DeepEqual(got.Entries[0], want) {
				t.Errorf("Convert(%q)\n got  %+v\n want %+v", tt.line, got.Entries[0], want)
			}
		})
	}
}

func TestWindowsConverterSkips(t *testing.T) {
	t.Parallel()

	lines := []string{
		"not a listing line",
		"13-01-24 10:00AM 5 bad-month.txt",
		"01-01-24 13:00PM 5 bad-hour.txt",
		"01-01-24 10:00AM -5 negative.txt",
		"01-01-24 10:00AM 5",
		"01-01-24 10:00AM 5 ok.txt",
		"   ",
	}
	got := WindowsConverter{}.Convert(lines)
	if got.Skipped != 5 {
		t.Errorf("Skipped = %d, want 5", got.Skipped)
	}
	if names := got.Names(); !reflect.DeepEqual(names, []string{"ok.txt"}) {
		t.Errorf("Names() = %q, want [ok.txt]", names)
	}
}

func TestSimpleConverter(t *testing.T) {
	t.Parallel()

	got := SimpleConverter{}.Convert([]string{".", "..", "a.txt", "", "b c\r", "sub/nested.txt"})
	want := []FileEntry{
		{Name: ".", IsDir: true, Size: -1, Raw: "."},
		{Name: "..", IsDir: true, Size: -1, Raw: ".."},
		{Name: "a.txt", Size: -1, Raw: "a.txt"},
		{Name: "b c", Size: -1, Raw: "b c\r"},
		{Name: "sub/nested.txt", Size: -1, Raw: "sub/nested.txt"},
	}
	if !reflect.DeepEqual(got.Entries, want) {
		t.Errorf("Convert()\n got  %+v\n want %+v", got.Entries, want)
	}
	for _, e := range got.Entries {
		if e.HasModTime() {
			t.Errorf("%q has a modification time", e.Name)
		}
	}
}

func TestConvertersEmptyAndIdempotent(t *testing.T) {
	t.Parallel()

	converters := map[string]ListingConverter{
		"unix":    UnixConverter{Now: fixedNow},
		"windows": WindowsConverter{},
		"simple":  SimpleConverter{},
	}
	raw := []string{
		"drwxr-xr-x 2 user group 4096 Jan 1 12:00 subdir",
		"01-01-24 12:00PM 120 file.txt",
		"plain-name",
		"",
	}
	for name, c := range converters {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if empty := c.Convert(nil); len(empty.Entries) != 0 || empty.Skipped != 0 {
				t.Errorf("Convert(nil) = %+v, want empty listing", empty)
			}
			first, second := c.Convert(raw), c.Convert(raw)
			if !reflect.DeepEqual(first, second) {
				t.Errorf("Convert is not deterministic:\n %+v\n %+v", first, second)
			}
		})
	}
}

func TestDialectFromSystemType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		syst string
		want Dialect
	}{
		{"UNIX Type: L8", DialectUnix},
		{"unix type: l8 version: bsd-199506", DialectUnix},
		{"Windows_NT", DialectWindows},
		{"  windows_nt version 5.0", DialectWindows},
		{"MACOS Peter's Server", DialectUnknown},
		{"", DialectUnknown},
	}
	for _, tt := range tests {
		if got := DialectFromSystemType(tt.syst); got != tt.want {
			t.Errorf("DialectFromSystemType(%q) = %v, want %v", tt.syst, got, tt.want)
		}
	}

	if _, ok := ConverterFor(DialectUnknown, nil).(UnixConverter); !ok {
		t.Error("unknown dialect should list like unix")
	}
	if _, ok := ConverterFor(DialectWindows, nil).(WindowsConverter); !ok {
		t.Error("windows dialect should use WindowsConverter")
	}
}
