package analysis

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber parses the leading decimal number of s, the way a browser's
// parseFloat does: "12.5%" is 12.5, "abc" is not a number.
func ParseNumber(s string) (float64, bool) {
	m := numericPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var dateLayouts = []string{
	time.RFC3339, time.RFC3339Nano, time.RFC1123, time.RFC1123Z, time.RFC822,
	"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02T15:04",
	"2006/01/02", "2006/1/2", "01/02/2006", "1/2/2006", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006", "Mon Jan 2 2006", "2006-01",
}

// ParseDate parses s against a fixed set of common layouts. Values of four
// characters or less and pure digit strings are never dates.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) <= 4 || isDigits(s) {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Sorted returns an ascending copy of vals.
func Sorted(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// FloorQuantile picks sorted[floor(n*p)] without interpolation.
func FloorQuantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	i := int(math.Floor(float64(n) * p))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return sorted[i]
}

// Summarize computes min, max, mean, median and floor-index quartiles.
func Summarize(vals []float64) Summary {
	if len(vals) == 0 {
		return Summary{}
	}
	s := Sorted(vals)
	return Summary{
		Min:       s[0],
		Max:       s[len(s)-1],
		Mean:      Mean(vals),
		Median:    FloorQuantile(s, 0.5),
		Quartiles: [2]float64{FloorQuantile(s, 0.25), FloorQuantile(s, 0.75)},
	}
}

// Mean is the arithmetic mean, accumulated incrementally so finite inputs
// near the float64 limit keep a finite result.
func Mean(vals []float64) float64 {
	var m float64
	for i, x := range vals {
		n := float64(i + 1)
		m += x/n - m/n
	}
	return m
}

// StdDev is the sample standard deviation (n-1); 0 for fewer than two values.
// Values are scaled by their largest magnitude first and the result saturates
// at math.MaxFloat64.
func StdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var scale float64
	for _, x := range vals {
		scale = math.Max(scale, math.Abs(x))
	}
	if scale == 0 {
		return 0
	}
	// Welford
	var mean, m2 float64
	for i, x := range vals {
		x /= scale
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	sd := math.Sqrt(m2/float64(len(vals)-1)) * scale
	if math.IsInf(sd, 0) {
		return math.MaxFloat64
	}
	return sd
}

// Pearson returns the correlation of two aligned series. It is 0 when fewer
// than two pairs exist or either series has zero variance, and is clamped to [-1, 1].
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return 0
	}
	mx, my := Mean(xs[:n]), Mean(ys[:n])
	var num, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		num += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	den := math.Sqrt(sxx) * math.Sqrt(syy)
	if den == 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// OutlierCount counts values outside the 1.5*IQR fences.
func OutlierCount(vals []float64, q1, q3 float64) int {
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr
	var n int
	for _, v := range vals {
		if v < lo || v > hi {
			n++
		}
	}
	return n
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
