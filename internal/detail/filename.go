package detail

import (
	"net/url"
	"path"
	"strings"
	"time"

	"chanlytics/internal/calls"
)

// DefaultExt is used when the recording URL has no usable extension.
const DefaultExt = "mp3"

// Filename names a downloaded recording: call_<phone>_<YYYY-MM-DD>.<ext>.
// The phone keeps digits, ASCII letters and '+'.
func Filename(r calls.Record, ext string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	phone := sanitizePhone(r.PhoneNumber)
	if phone == "" {
		phone = "unknown"
	}
	day := "undated"
	if !r.CallTime.IsZero() {
		day = r.CallTime.In(loc).Format(calls.LayoutDate)
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = DefaultExt
	}
	return "call_" + phone + "_" + day + "." + ext
}

func sanitizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '+':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtFromURL returns the lowercased extension of the URL path, or
// DefaultExt when there is none or it does not look like one.
func ExtFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return DefaultExt
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if ext == "" || len(ext) > 5 || strings.Trim(ext, "abcdefghijklmnopqrstuvwxyz0123456789") != "" {
		return DefaultExt
	}
	return ext
}
