package timecalc

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// ISOLayout is the local-time form used in exports, e.g. 2026-02-27T08:32:10+0100.
const ISOLayout = "2006-01-02T15:04:05-0700"

// GenerateID creates a record ID from the date of t and a random four-letter
// suffix, retrying until taken reports the candidate as free.
func GenerateID(t time.Time, taken func(string) bool) string {
	for {
		id := fmt.Sprintf("%s-%s", t.Format("20060102"), randomLetters(4))
		if taken == nil || !taken(id) {
			return id
		}
	}
}

func randomLetters(n int) string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffix := make([]byte, n)
	for i := range suffix {
		k, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		suffix[i] = chars[k.Int64()]
	}
	return string(suffix)
}

// FormatDuration formats a duration for humans: "4.25s" below ten seconds,
// "42s" below a minute, and "1h 05m" otherwise.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 60 {
		if seconds < 10 {
			return fmt.Sprintf("%.2fs", seconds)
		}
		return fmt.Sprintf("%ds", int64(seconds))
	}
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	return fmt.Sprintf("%dh %02dm", h, m)
}

// FormatISO renders t in loc using ISOLayout. A nil loc means time.Local.
func FormatISO(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(ISOLayout)
}

// Hours converts d to decimal hours.
func Hours(d time.Duration) float64 {
	return d.Seconds() / 3600
}
