package createdat

import (
	"regexp"
	"strconv"
	"time"
)

var (
	reImgVidDateTime = regexp.MustCompile(`(?i)^(?:IMG|VID)_(\d{8})_(\d{6})`)
	rePxlDateTimeMs  = regexp.MustCompile(`(?i)^PXL_(\d{8})_(\d{6})\d{3,}`)
	reDashDots       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[ _](\d{2})\.(\d{2})\.(\d{2})`)
	reImgWhatsApp    = regexp.MustCompile(`(?i)^(?:IMG|VID)-(\d{8})-WA\d+`)
	reScreenshot     = regexp.MustCompile(`(?i)^Screenshot_(\d{4})-(\d{2})-(\d{2})-(\d{2})-(\d{2})-(\d{2})`)
)

// parseFromFilename recognizes the naming schemes of common phone cameras and messengers.
func parseFromFilename(filename string, loc *time.Location) (time.Time, bool) {
	if m := reImgVidDateTime.FindStringSubmatch(filename); m != nil {
		return parseYYYYMMDD_HHMMSS(m[1], m[2], loc)
	}
	if m := rePxlDateTimeMs.FindStringSubmatch(filename); m != nil {
		return parseYYYYMMDD_HHMMSS(m[1], m[2], loc)
	}
	if m := reDashDots.FindStringSubmatch(filename); m != nil {
		return dateFromParts(m[1:7], loc)
	}
	if m := reImgWhatsApp.FindStringSubmatch(filename); m != nil {
		y, mo, d, ok := parseYYYYMMDD(m[1])
		if !ok {
			return time.Time{}, false
		}
		return validDate(y, mo, d, 0, 0, 0, loc)
	}
	if m := reScreenshot.FindStringSubmatch(filename); m != nil {
		return dateFromParts(m[1:7], loc)
	}

	return time.Time{}, false
}

func parseYYYYMMDD_HHMMSS(yyyymmdd, hhmmss string, loc *time.Location) (time.Time, bool) {
	y, mo, d, ok := parseYYYYMMDD(yyyymmdd)
	if !ok || len(hhmmss) != 6 {
		return time.Time{}, false
	}
	return dateFromParts([]string{
		strconv.Itoa(y), strconv.Itoa(mo), strconv.Itoa(d),
		hhmmss[0:2], hhmmss[2:4], hhmmss[4:6],
	}, loc)
}

func parseYYYYMMDD(yyyymmdd string) (year int, month int, day int, ok bool) {
	if len(yyyymmdd) != 8 {
		return 0, 0, 0, false
	}
	y, ok := atoi(yyyymmdd[0:4])
	if !ok {
		return 0, 0, 0, false
	}
	mo, ok := atoi(yyyymmdd[4:6])
	if !ok {
		return 0, 0, 0, false
	}
	d, ok := atoi(yyyymmdd[6:8])
	if !ok {
		return 0, 0, 0, false
	}
	return y, mo, d, true
}

// dateFromParts takes year, month, day, hour, minute, second as decimal strings.
func dateFromParts(parts []string, loc *time.Location) (time.Time, bool) {
	if len(parts) != 6 {
		return time.Time{}, false
	}
	var n [6]int
	for i, p := range parts {
		v, ok := atoi(p)
		if !ok {
			return time.Time{}, false
		}
		n[i] = v
	}
	return validDate(n[0], n[1], n[2], n[3], n[4], n[5], loc)
}

// validDate rejects values that time.Date would silently normalize,
// such as month 13 or day 0.
func validDate(y, mo, d, h, mi, s int, loc *time.Location) (time.Time, bool) {
	t := time.Date(y, time.Month(mo), d, h, mi, s, 0, loc)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d ||
		t.Hour() != h || t.Minute() != mi || t.Second() != s {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
