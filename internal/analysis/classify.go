package analysis

import (
	"slices"

	"github.com/KaramelBytes/dataloom-cli/internal/parser"
)

// Kind is the semantic type inferred for a column.
type Kind string

const (
	KindCategorical Kind = "categorical"
	KindNumerical   Kind = "numerical"
	KindDate        Kind = "date"
)

const (
	numericRatioThreshold = 0.7
	dateRatioThreshold    = 0.3
	sampleValueCount      = 5
)

// Options controls column classification.
type Options struct {
	// MaxCategoricalUnique is the distinct-value count at or below which a
	// numeric column is still treated as categorical. 0 means 20.
	MaxCategoricalUnique int
}

// DefaultOptions returns the classification defaults.
func DefaultOptions() Options {
	return Options{MaxCategoricalUnique: 20}
}

// Summary holds the numeric statistics of a numerical column.
type Summary struct {
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	Mean      float64    `json:"mean"`
	Median    float64    `json:"median"`
	Quartiles [2]float64 `json:"quartiles"`
}

// Stats always carries the null count; Summary is set for numerical columns only.
type Stats struct {
	*Summary
	NullCount int `json:"nullCount"`
}

// ColumnProfile is the classification and statistics of one column.
type ColumnProfile struct {
	Index        int      `json:"index"`
	Name         string   `json:"name"`
	Kind         Kind     `json:"type"`
	UniqueCount  int      `json:"uniqueCount"`
	SampleValues []string `json:"sampleValues"`
	// Numeric reports whether the column passed the numeric-ratio test,
	// regardless of the final Kind.
	Numeric bool  `json:"numeric"`
	Stats   Stats `json:"stats"`
}

// Classify profiles every column of t in header order. A table without data
// rows yields no profiles.
func Classify(t *parser.RawTable, opt Options) []ColumnProfile {
	if t == nil || len(t.Rows) == 0 {
		return []ColumnProfile{}
	}
	maxUnique := opt.MaxCategoricalUnique
	if maxUnique <= 0 {
		maxUnique = DefaultOptions().MaxCategoricalUnique
	}
	out := make([]ColumnProfile, 0, len(t.Headers))
	for i, name := range t.Headers {
		out = append(out, classifyColumn(i, name, t.Column(i), maxUnique))
	}
	return out
}

func classifyColumn(index int, name string, cells []string, maxUnique int) ColumnProfile {
	values := make([]string, 0, len(cells))
	for _, c := range cells {
		if c == "" || c == parser.NullToken {
			continue
		}
		values = append(values, c)
	}

	unique := make(map[string]struct{}, len(values))
	nums := make([]float64, 0, len(values))
	var dates int
	for _, v := range values {
		unique[v] = struct{}{}
		if f, ok := ParseNumber(v); ok {
			nums = append(nums, f)
		}
		if _, ok := ParseDate(v); ok {
			dates++
		}
	}

	var numericRatio, dateRatio float64
	if len(values) > 0 {
		numericRatio = float64(len(nums)) / float64(len(values))
		dateRatio = float64(dates) / float64(len(values))
	}
	isNumeric := numericRatio > numericRatioThreshold

	p := ColumnProfile{
		Index:        index,
		Name:         name,
		Kind:         KindCategorical,
		UniqueCount:  len(unique),
		SampleValues: slices.Clone(values[:min(len(values), sampleValueCount)]),
		Numeric:      isNumeric,
		Stats:        Stats{NullCount: len(cells) - len(values)},
	}
	switch {
	case dateRatio > dateRatioThreshold:
		p.Kind = KindDate
	case isNumeric && len(unique) > maxUnique:
		p.Kind = KindNumerical
		s := Summarize(nums)
		p.Stats.Summary = &s
	}
	return p
}

// ByKind returns the profiles of the given kind, preserving order.
func ByKind(profiles []ColumnProfile, k Kind) []ColumnProfile {
	var out []ColumnProfile
	for _, p := range profiles {
		if p.Kind == k {
			out = append(out, p)
		}
	}
	return out
}
