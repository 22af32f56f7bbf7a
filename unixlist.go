package remotefs

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// UnixConverter parses "ls -l" style listings:
//
//	drwxr-xr-x   2 user  group     4096 Jan  1 12:00 subdir
//	-rw-r--r--   1 user  group       10 Jan  1  2023 my file.txt
//	lrwxrwxrwx   1 root  root        11 Dec 20 10:30 link -> target.txt
//	-rw-r--r--   1 owner         10 Jan  1 12:00 no-group.txt
//
// The name is everything after the blank that follows the date, leading and
// trailing spaces included. "total N" lines are ignored and "dir:" headers
// of recursive listings set FileEntry.Dir on the entries that follow.
type UnixConverter struct {
	// Now anchors dates printed without a year. Nil means time.Now.
	Now func() time.Time

	// Location is the zone timestamps are read in. Nil means UTC.
	Location *time.Location
}

// Convert implements ListingConverter.
func (c UnixConverter) Convert(lines []string) Listing {
	var (
		l   Listing
		dir string
	)
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitFields(line)
		if len(fields) == 2 && fields[0].text == "total" {
			continue
		}
		if len(fields) < 8 && strings.HasSuffix(line, ":") {
			dir = strings.TrimSuffix(strings.TrimSpace(line), ":")
			continue
		}

		entry, ok := parseUnixLine(line, fields, now(), loc)
		if !ok {
			slog.Debug("skipping unparseable unix listing line", "raw", raw)
			l.Skipped++
			continue
		}
		entry.Dir = dir
		entry.Raw = raw
		l.Entries = append(l.Entries, entry)
	}
	return l
}

func parseUnixLine(line string, fields []field, now time.Time, loc *time.Location) (FileEntry, bool) {
	if len(fields) < 8 || !isUnixRights(fields[0].text) {
		return FileEntry{}, false
	}

	// 9-field layout: rights links owner group size month day time name.
	// 8-field layout drops the group.
	var entry FileEntry
	sizeIdx := -1
	if len(fields) >= 9 && isSize(fields[4].text) && isMonth(fields[5].text) {
		sizeIdx = 4
		entry.Group = fields[3].text
	} else if isSize(fields[3].text) && isMonth(fields[4].text) {
		sizeIdx = 3
	}
	if sizeIdx < 0 || len(fields) <= sizeIdx+4 {
		return FileEntry{}, false
	}

	entry.Rights = fields[0].text
	entry.Owner = fields[2].text
	entry.Size, _ = strconv.ParseInt(fields[sizeIdx].text, 10, 64)
	entry.ModTime = unixTime(fields[sizeIdx+1].text, fields[sizeIdx+2].text, fields[sizeIdx+3].text, now, loc)
	entry.IsDir = entry.Rights[0] == 'd'

	name := restAfter(line, fields, sizeIdx+3)
	if entry.Rights[0] == 'l' {
		if before, after, ok := strings.Cut(name, " -> "); ok {
			name, entry.Target = before, after
		}
	}
	entry.Name = name
	return entry, true
}

func isUnixRights(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsRune("-dlbcps", rune(s[0])) && len(s) >= 10 {
		return true
	}
	// Some servers print octal permissions instead.
	if len(s) < 3 || len(s) > 4 {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '7' {
			return false
		}
	}
	return true
}

func isSize(s string) bool {
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && n >= 0
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

func isMonth(s string) bool {
	_, ok := months[strings.ToLower(s)]
	return ok
}

// unixTime reads "Jan 1 12:00" or "Jan 1 2023". Dates without a year are
// placed in the most recent year that does not put them in the future.
func unixTime(month, day, yearOrTime string, now time.Time, loc *time.Location) time.Time {
	m := months[strings.ToLower(month)]
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}
	}

	if hh, mm, ok := strings.Cut(yearOrTime, ":"); ok {
		hour, err1 := strconv.Atoi(hh)
		minute, err2 := strconv.Atoi(mm)
		if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
			return time.Time{}
		}
		now = now.In(loc)
		t := time.Date(now.Year(), m, d, hour, minute, 0, 0, loc)
		if t.After(now.Add(24 * time.Hour)) {
			t = t.AddDate(-1, 0, 0)
		}
		return t
	}

	year, err := strconv.Atoi(yearOrTime)
	if err != nil || year < 1970 {
		return time.Time{}
	}
	return time.Date(year, m, d, 0, 0, 0, 0, loc)
}
