package workflowdsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Seconds, Minutes, Hours, Days and Weeks are convenience constructors
// for RetryPolicy.Delay / TimeoutPolicy.Timeout, mirroring the
// reference implementation's Duration helpers.
func Seconds(n float64) time.Duration { return time.Duration(n * float64(time.Second)) }
func Minutes(n float64) time.Duration { return Seconds(n * 60) }
func Hours(n float64) time.Duration   { return Seconds(n * 3600) }
func Days(n float64) time.Duration    { return Hours(n * 24) }
func Weeks(n float64) time.Duration   { return Days(n * 7) }

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// encodeWaitFor renders a WaitFor per the wire policy: durations as
// "PT<seconds>S", timestamps as full ISO-8601, anything else
// verbatim.
func encodeWaitFor(w WaitFor) string {
	switch w.Kind {
	case WaitKindDuration:
		return fmt.Sprintf("PT%sS", formatSeconds(w.Duration.Seconds()))
	case WaitKindTimestamp:
		return w.Timestamp.UTC().Format(time.RFC3339Nano)
	default:
		return w.Tag
	}
}

func formatSeconds(s float64) string {
	str := strconv.FormatFloat(s, 'f', -1, 64)
	if !strings.Contains(str, ".") {
		str += ".0"
	}
	return str
}

// decodeWaitFor parses the wire string using the fallback chain
// specified in §4.1: legacy prefixes first, then ISO duration, then
// ISO timestamp, then plain string (accepted as an event tag).
func decodeWaitFor(raw string) WaitFor {
	if strings.HasPrefix(raw, "duration:") {
		secs, err := strconv.ParseFloat(strings.TrimPrefix(raw, "duration:"), 64)
		if err == nil {
			return WaitFor{Kind: WaitKindDuration, Duration: Seconds(secs)}
		}
	}
	if strings.HasPrefix(raw, "datetime:") {
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimPrefix(raw, "datetime:")); err == nil {
			return WaitFor{Kind: WaitKindTimestamp, Timestamp: t}
		}
	}
	if m := isoDurationRe.FindStringSubmatch(raw); m != nil && raw != "PT" {
		var total float64
		if m[1] != "" {
			h, _ := strconv.ParseFloat(m[1], 64)
			total += h * 3600
		}
		if m[2] != "" {
			mi, _ := strconv.ParseFloat(m[2], 64)
			total += mi * 60
		}
		if m[3] != "" {
			s, _ := strconv.ParseFloat(m[3], 64)
			total += s
		}
		return WaitFor{Kind: WaitKindDuration, Duration: Seconds(total)}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return WaitFor{Kind: WaitKindTimestamp, Timestamp: t}
	}
	return WaitFor{Kind: WaitKindTag, Tag: raw}
}

// WaitDuration builds a duration-kind WaitFor.
func WaitDuration(d time.Duration) WaitFor { return WaitFor{Kind: WaitKindDuration, Duration: d} }

// WaitTimestamp builds a timestamp-kind WaitFor.
func WaitTimestamp(t time.Time) WaitFor { return WaitFor{Kind: WaitKindTimestamp, Timestamp: t} }

// WaitTag builds an opaque event/tag WaitFor.
func WaitTag(tag string) WaitFor { return WaitFor{Kind: WaitKindTag, Tag: tag} }
