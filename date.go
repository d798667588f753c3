package nodefilter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isoDateFormats lists the ISO 8601 layouts a string sample must match to be
// treated as a date. Tokens: YYYY year, MM month, DD day of month, DDDD day
// of year, HH hour, mm minute, ss second, SSS millisecond, WW ISO week,
// E ISO weekday, Z zone offset. Text in brackets is literal.
var isoDateFormats = []string{
	"YYYY",
	"YYYY-MM",
	"YYYY-MM-DD",
	"YYYYMMDD",

	// local time
	"YYYY-MM-DDTHH",
	"YYYY-MM-DDTHH:mm",
	"YYYY-MM-DDTHHmm",
	"YYYY-MM-DDTHH:mm:ss",
	"YYYY-MM-DDTHHmmss",
	"YYYY-MM-DDTHH:mm:ss.SSS",
	"YYYY-MM-DDTHHmmss.SSS",

	// with offset
	"YYYY-MM-DDTHHZ",
	"YYYY-MM-DDTHH:mmZ",
	"YYYY-MM-DDTHHmmZ",
	"YYYY-MM-DDTHH:mm:ssZ",
	"YYYY-MM-DDTHHmmssZ",
	"YYYY-MM-DDTHH:mm:ss.SSSZ",
	"YYYY-MM-DDTHHmmss.SSSZ",

	"YYYY-[W]WW",
	"YYYY[W]WW",
	"YYYY-[W]WW-E",
	"YYYY[W]WWE",
	"YYYY-DDDD",
	"YYYYDDDD",
}

// dateTokens is ordered so longer tokens win over their prefixes
var dateTokens = []struct {
	token   string
	pattern string
}{
	{"YYYY", `(?P<year>\d{4})`},
	{"DDDD", `(?P<yday>\d{3})`},
	{"SSS", `(?P<ms>\d{3})`},
	{"MM", `(?P<month>\d{2})`},
	{"DD", `(?P<day>\d{2})`},
	{"HH", `(?P<hour>\d{2})`},
	{"mm", `(?P<minute>\d{2})`},
	{"ss", `(?P<second>\d{2})`},
	{"WW", `(?P<week>\d{2})`},
	{"E", `(?P<weekday>\d)`},
	{"Z", `(?P<zone>[Zz]|[+-]\d{2}(?::?\d{2})?)`},
}

type dateLayout struct {
	format string
	re     *regexp.Regexp
}

var dateLayouts = compileDateLayouts(isoDateFormats)

func compileDateLayouts(formats []string) []dateLayout {
	layouts := make([]dateLayout, len(formats))
	for i, format := range formats {
		layouts[i] = dateLayout{
			format: format,
			re:     regexp.MustCompile("^" + layoutPattern(format) + "$"),
		}
	}
	return layouts
}

// layoutPattern translates a layout into a regular expression with one named
// group per token
func layoutPattern(format string) string {
	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i:], ']')
			if end > 0 {
				b.WriteString(regexp.QuoteMeta(format[i+1 : i+end]))
				i += end + 1
				continue
			}
		}

		matched := false
		for _, tok := range dateTokens {
			if strings.HasPrefix(format[i:], tok.token) {
				b.WriteString(tok.pattern)
				i += len(tok.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteString(regexp.QuoteMeta(format[i : i+1]))
			i++
		}
	}
	return b.String()
}

// IsDate reports whether v is a date sample: a time.Time, or a string in one
// of the ISO 8601 layouts with in-range components.
func IsDate(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return true
	case *time.Time:
		return t != nil
	case string:
		_, ok := ParseDate(t)
		return ok
	case DateValue:
		return true
	}
	return false
}

// ParseDate parses s against the ISO 8601 layouts. Values without a zone
// offset are interpreted as UTC.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		match := layout.re.FindStringSubmatch(s)
		if match == nil {
			continue
		}
		if t, ok := layout.build(match); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (l dateLayout) build(match []string) (time.Time, bool) {
	parts := make(map[string]int, len(match))
	zone := ""
	for i, name := range l.re.SubexpNames() {
		if name == "" || match[i] == "" {
			continue
		}
		if name == "zone" {
			zone = match[i]
			continue
		}
		n, err := strconv.Atoi(match[i])
		if err != nil {
			return time.Time{}, false
		}
		parts[name] = n
	}

	loc, ok := parseZone(zone)
	if !ok {
		return time.Time{}, false
	}

	year := parts["year"]
	hour, minute, second, ms := parts["hour"], parts["minute"], parts["second"], parts["ms"]
	if hour > 24 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	if hour == 24 && (minute != 0 || second != 0 || ms != 0) {
		return time.Time{}, false
	}
	nsec := ms * int(time.Millisecond)

	if week, ok := parts["week"]; ok {
		weekday := 1
		if wd, ok := parts["weekday"]; ok {
			weekday = wd
		}
		if week < 1 || week > isoWeeksInYear(year) || weekday < 1 || weekday > 7 {
			return time.Time{}, false
		}
		monday := isoWeekOneMonday(year)
		return monday.AddDate(0, 0, (week-1)*7+weekday-1), true
	}

	if yday, ok := parts["yday"]; ok {
		if yday < 1 || yday > daysInYear(year) {
			return time.Time{}, false
		}
		return time.Date(year, time.January, yday, 0, 0, 0, 0, time.UTC), true
	}

	month, day := 1, 1
	if m, ok := parts["month"]; ok {
		month = m
	}
	if d, ok := parts["day"]; ok {
		day = d
	}
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	if day < 1 || day > daysInMonth(year, time.Month(month)) {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, nsec, loc), true
}

func parseZone(zone string) (*time.Location, bool) {
	if zone == "" || zone == "Z" || zone == "z" {
		return time.UTC, true
	}

	sign := 1
	if zone[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(zone[1:], ":", "")
	hours, err := strconv.Atoi(digits[:2])
	if err != nil {
		return nil, false
	}
	minutes := 0
	if len(digits) == 4 {
		minutes, err = strconv.Atoi(digits[2:])
		if err != nil {
			return nil, false
		}
	}
	if minutes > 59 {
		return nil, false
	}
	return time.FixedZone(zone, sign*(hours*3600+minutes*60)), true
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func daysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

func isoWeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// isoWeekOneMonday returns the Monday starting ISO week 1, the week holding
// January 4th
func isoWeekOneMonday(year int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset)
}
