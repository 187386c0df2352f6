package settings

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateTimeSerializer stores instants in RFC 3339 with nanoseconds. UTC values
// round-trip as UTC and local values as time.Local.
func DateTimeSerializer() *TypedSerializer[time.Time] {
	return NewSerializer(KindDateTime,
		func(raw, _ string) (time.Time, error) { return parseDateTime(raw) },
		func(v time.Time) (string, error) { return v.Format(time.RFC3339Nano), nil },
		func(a, b time.Time) bool { return a.Equal(b) },
	)
}

func parseDateTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, formatError(KindDateTime, raw, err)
	}
	if strings.HasSuffix(value, "Z") || strings.HasSuffix(value, "z") {
		return t.UTC(), nil
	}
	local := t.In(time.Local)
	_, localOffset := local.Zone()
	_, parsedOffset := t.Zone()
	if localOffset == parsedOffset {
		return local, nil
	}
	return t, nil
}

// TimeSpanSerializer stores durations in the constant format
// [-][d.]hh:mm:ss[.fffffffff].
func TimeSpanSerializer() *TypedSerializer[time.Duration] {
	return NewSerializer(KindTimeSpan,
		func(raw, _ string) (time.Duration, error) { return parseTimeSpan(raw) },
		func(v time.Duration) (string, error) { return formatTimeSpan(v), nil },
		func(a, b time.Duration) bool { return a == b },
	)
}

var timeSpanPattern = regexp.MustCompile(`^(-)?(?:(\d+)\.)?(\d{1,2}):(\d{1,2}):(\d{1,2})(?:\.(\d{1,9}))?$`)

const day = 24 * time.Hour

func formatTimeSpan(d time.Duration) string {
	negative := d < 0
	var total uint64
	if negative {
		total = uint64(-(d + 1)) + 1
	} else {
		total = uint64(d)
	}

	days := total / uint64(day)
	total %= uint64(day)
	hours := total / uint64(time.Hour)
	total %= uint64(time.Hour)
	minutes := total / uint64(time.Minute)
	total %= uint64(time.Minute)
	seconds := total / uint64(time.Second)
	nanos := total % uint64(time.Second)

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	if days > 0 {
		b.WriteString(strconv.FormatUint(days, 10))
		b.WriteByte('.')
	}
	fmt.Fprintf(&b, "%02d:%02d:%02d", hours, minutes, seconds)
	if nanos > 0 {
		fmt.Fprintf(&b, ".%09d", nanos)
	}
	return b.String()
}

func parseTimeSpan(raw string) (time.Duration, error) {
	match := timeSpanPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return 0, formatError(KindTimeSpan, raw, nil)
	}
	negative := match[1] == "-"

	var days uint64
	if match[2] != "" {
		v, err := strconv.ParseUint(match[2], 10, 64)
		if err != nil {
			return 0, overflowError(KindTimeSpan, raw)
		}
		days = v
	}
	hours, _ := strconv.ParseUint(match[3], 10, 64)
	minutes, _ := strconv.ParseUint(match[4], 10, 64)
	seconds, _ := strconv.ParseUint(match[5], 10, 64)
	if hours > 23 || minutes > 59 || seconds > 59 {
		return 0, formatError(KindTimeSpan, raw, nil)
	}
	var nanos uint64
	if match[6] != "" {
		fraction := match[6] + strings.Repeat("0", 9-len(match[6]))
		nanos, _ = strconv.ParseUint(fraction, 10, 64)
	}

	limit := uint64(math.MaxInt64)
	if negative {
		limit++
	}
	if days > limit/uint64(day) {
		return 0, overflowError(KindTimeSpan, raw)
	}
	total := days*uint64(day) +
		hours*uint64(time.Hour) +
		minutes*uint64(time.Minute) +
		seconds*uint64(time.Second) +
		nanos
	if total > limit {
		return 0, overflowError(KindTimeSpan, raw)
	}
	if negative {
		if total == uint64(math.MaxInt64)+1 {
			return time.Duration(math.MinInt64), nil
		}
		return -time.Duration(total), nil
	}
	return time.Duration(total), nil
}
