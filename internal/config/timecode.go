package config

import (
	"math"
	"strconv"
	"strings"
)

// ParseTimecode converts "SS", "MM:SS" or "HH:MM:SS" to seconds. The last
// field may be fractional. Anything unparseable yields 0.
func ParseTimecode(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}

	var total float64
	for i, p := range parts {
		var v float64
		if i == len(parts)-1 {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return 0
			}
			v = f
		} else {
			n, err := strconv.Atoi(p)
			if err != nil {
				return 0
			}
			v = float64(n)
		}
		if v < 0 {
			return 0
		}
		total = total*60 + v
	}
	return total
}

// FormatTimecode renders seconds as MM:SS.mmm, or HH:MM:SS.mmm past an hour.
func FormatTimecode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	sec := float64(ms%60_000) / 1000
	if h > 0 {
		return strconv.FormatInt(h, 10) + ":" + pad2(m) + ":" + padSeconds(sec)
	}
	return pad2(m) + ":" + padSeconds(sec)
}

func pad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

func padSeconds(s float64) string {
	str := strconv.FormatFloat(s, 'f', 3, 64)
	if s < 10 {
		return "0" + str
	}
	return str
}
