package artifact

import (
	"regexp"
	"strconv"
	"time"
)

var (
	captureTimeRe  = regexp.MustCompile(`_(\d{14,17})\.(m3u8|ts)$`)
	uidRe          = regexp.MustCompile(`__uid_s_(\d+)__uid_e_`)
	streamTypeRe   = regexp.MustCompile(`__uid_e_(\w+)\.m3u8$`)
	segmentStartRe = regexp.MustCompile(`__ts_s_(\d+)`)
)

// ExtractCaptureTime parses the 14-17 digit UTC timestamp embedded
// immediately before the file extension (YYYYMMDDHHMMSS with optional
// milliseconds). Returns nil when the filename does not carry one.
func ExtractCaptureTime(key string) *time.Time {
	match := captureTimeRe.FindStringSubmatch(key)
	if match == nil {
		return nil
	}
	ts := match[1]

	year, _ := strconv.Atoi(ts[0:4])
	month, _ := strconv.Atoi(ts[4:6])
	day, _ := strconv.Atoi(ts[6:8])
	hour, _ := strconv.Atoi(ts[8:10])
	min, _ := strconv.Atoi(ts[10:12])
	sec, _ := strconv.Atoi(ts[12:14])

	msec := 0
	if len(ts) > 14 {
		frac := ts[14:]
		for len(frac) < 3 {
			frac += "0"
		}
		msec, _ = strconv.Atoi(frac[:3])
	}

	if month < 1 || month > 12 || day < 1 || day > 31 ||
		hour > 23 || min > 59 || sec > 59 {
		return nil
	}

	t := time.Date(year, time.Month(month), day, hour, min, sec, msec*int(time.Millisecond), time.UTC)
	return &t
}

// ExtractUID returns the participant identity from the __uid_s_<id>__uid_e_
// filename marker, or empty when absent.
func ExtractUID(key string) string {
	match := uidRe.FindStringSubmatch(key)
	if match == nil {
		return ""
	}
	return match[1]
}

// ExtractStreamType returns audio/video from the __uid_e_<type> marker.
func ExtractStreamType(key string) string {
	match := streamTypeRe.FindStringSubmatch(key)
	if match == nil {
		return StreamTypeUnknown
	}
	return match[1]
}

// ExtractSegmentStart parses the __ts_s_<epoch-ms> marker carried by
// per-segment filenames of individual audio recordings.
func ExtractSegmentStart(key string) *time.Time {
	match := segmentStartRe.FindStringSubmatch(key)
	if match == nil {
		return nil
	}
	epochMs, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(epochMs).UTC()
	return &t
}
