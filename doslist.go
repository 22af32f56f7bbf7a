package remotefs

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// WindowsConverter parses IIS and other DOS-style listings:
//
//	12-14-23  12:22PM           1037794 large-document.pdf
//	09-24-24  10:30AM       <DIR>          logger
//	2024/01/31  23:59       <dir>          Program Files
//
// Entries never carry rights, owner or group. Folders have Size -1. Names
// skip the column padding and keep trailing spaces.
type WindowsConverter struct {
	// Location is the zone timestamps are read in. Nil means UTC.
	Location *time.Location
}

// Convert implements ListingConverter.
func (c WindowsConverter) Convert(lines []string) Listing {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	var l Listing
	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, ok := parseDOSLine(line, loc)
		if !ok {
			slog.Debug("skipping unparseable windows listing line", "raw", raw)
			l.Skipped++
			continue
		}
		entry.Raw = raw
		l.Entries = append(l.Entries, entry)
	}
	return l
}

func parseDOSLine(line string, loc *time.Location) (FileEntry, bool) {
	fields := splitFields(line)
	if len(fields) < 4 {
		return FileEntry{}, false
	}
	date, ok := dosDate(fields[0].text)
	if !ok {
		return FileEntry{}, false
	}

	// The meridiem may be a separate token: "10:30 AM".
	sizeIdx := 2
	clock := fields[1].text
	if m := strings.ToUpper(fields[2].text); m == "AM" || m == "PM" {
		clock += m
		sizeIdx = 3
	}
	hour, minute, ok := dosClock(clock)
	if !ok || len(fields) <= sizeIdx+1 {
		return FileEntry{}, false
	}

	entry := FileEntry{
		ModTime: time.Date(date.year, date.month, date.day, hour, minute, 0, 0, loc),
		Name:    rest(line, fields, sizeIdx+1),
	}
	sizeField := fields[sizeIdx].text
	if strings.EqualFold(sizeField, "<DIR>") {
		entry.IsDir = true
		entry.Size = -1
		return entry, true
	}
	// Some servers group digits: "1,037,794".
	size, err := strconv.ParseInt(strings.ReplaceAll(sizeField, ",", ""), 10, 64)
	if err != nil || size < 0 {
		return FileEntry{}, false
	}
	entry.Size = size
	return entry, true
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

// dosDate reads MM-DD-YY, MM-DD-YYYY, MM/DD/YY or YYYY/MM/DD. Two-digit
// years below 70 are in the 2000s.
func dosDate(s string) (civilDate, bool) {
	sep := "-"
	if !strings.Contains(s, sep) {
		sep = "/"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return civilDate{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if p == "" || len(p) > 4 {
			return civilDate{}, false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return civilDate{}, false
		}
		nums[i] = n
	}

	var d civilDate
	switch {
	case len(parts[0]) == 4:
		d = civilDate{year: nums[0], month: time.Month(nums[1]), day: nums[2]}
	case len(parts[2]) == 2:
		d = civilDate{year: 1900 + nums[2], month: time.Month(nums[0]), day: nums[1]}
		if nums[2] < 70 {
			d.year += 100
		}
	case len(parts[2]) == 4:
		d = civilDate{year: nums[2], month: time.Month(nums[0]), day: nums[1]}
	default:
		return civilDate{}, false
	}
	if d.month < time.January || d.month > time.December || d.day < 1 || d.day > 31 {
		return civilDate{}, false
	}
	return d, true
}

// dosClock reads 12-hour "03:04PM" or 24-hour "15:04".
func dosClock(s string) (hour, minute int, ok bool) {
	upper := strings.ToUpper(s)
	meridiem := ""
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		meridiem = upper[len(upper)-2:]
		upper = upper[:len(upper)-2]
	}
	hh, mm, found := strings.Cut(upper, ":")
	if !found {
		return 0, 0, false
	}
	hour, err1 := strconv.Atoi(hh)
	minute, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}

	switch meridiem {
	case "":
		if hour < 0 || hour > 23 {
			return 0, 0, false
		}
	default:
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		hour %= 12
		if meridiem == "PM" {
			hour += 12
		}
	}
	return hour, minute, true
}
