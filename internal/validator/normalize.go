package validator

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	priceNumberRe = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?|\.\d+`)
	speedRe       = regexp.MustCompile(`(?i)((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?)\s*(gbps|gb/s|gbit/s|gbit|mbps|mb/s|mbit/s|mbit)?`)
)

// ParsePrice reads a price that may carry currency symbols, thousands
// separators or a period suffix ("$1,199.00/month", "AUD 89", "89").
func ParsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	negative := strings.HasPrefix(raw, "-") || strings.HasPrefix(raw, "−")
	m := priceNumberRe.FindString(raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// ParseSpeed reads the first speed in text and returns it in Mbps. Values
// marked as Gbps are scaled; bare numbers are taken as Mbps. "100/20"
// yields the download figure, 100.
func ParseSpeed(raw string) (float64, bool) {
	m := speedRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "g") {
		v *= 1000
	}
	return v, true
}

// SpeedMatches reports whether the displayed speed numerically equals
// target (in Mbps).
func SpeedMatches(displayed string, target float64) bool {
	v, ok := ParseSpeed(displayed)
	if !ok {
		return false
	}
	return math.Abs(v-target) < 1e-9
}

// isNullText reports whether a string stands in for a missing value.
func isNullText(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none", "n/a":
		return true
	}
	return false
}
