// Package insights produces the narrative part of a dashboard: it prompts an
// LLM runtime for business insights about a profiled dataset and falls back
// to a deterministic narrative when the runtime cannot deliver.
package insights

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
)

// ErrInvalidResponse wraps model output that is not valid insights JSON.
var ErrInvalidResponse = errors.New("invalid insights response")

// FallbackScore is the data quality score reported by Fallback.
const FallbackScore = 85

// DataQuality is the model's assessment of the dataset.
type DataQuality struct {
	Score           float64  `json:"score"`
	Strengths       []string `json:"strengths"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}

// Insights is the narrative returned by the insight source.
type Insights struct {
	KeyInsights        []string    `json:"keyInsights"`
	DataQuality        DataQuality `json:"dataQuality"`
	BusinessValue      string      `json:"businessValue"`
	ActionableInsights []string    `json:"actionableInsights"`
}

// normalize replaces nil slices so the payload always serializes arrays.
func (in *Insights) normalize() {
	if in.KeyInsights == nil {
		in.KeyInsights = []string{}
	}
	if in.ActionableInsights == nil {
		in.ActionableInsights = []string{}
	}
	if in.DataQuality.Strengths == nil {
		in.DataQuality.Strengths = []string{}
	}
	if in.DataQuality.Concerns == nil {
		in.DataQuality.Concerns = []string{}
	}
	if in.DataQuality.Recommendations == nil {
		in.DataQuality.Recommendations = []string{}
	}
}

// Fallback derives a narrative from the column profiles alone.
func Fallback(profiles []analysis.ColumnProfile, rows, chartCount int) *Insights {
	numerical := len(analysis.ByKind(profiles, analysis.KindNumerical))
	categorical := len(analysis.ByKind(profiles, analysis.KindCategorical))
	return &Insights{
		KeyInsights: []string{
			fmt.Sprintf("Comprehensive analysis of %d columns with %d records", len(profiles), rows),
			fmt.Sprintf("Generated %d visualizations covering univariate, bivariate, and correlation analysis", chartCount),
			fmt.Sprintf("Found %d numerical and %d categorical variables", numerical, categorical),
			"Multiple chart types provide complete data exploration coverage",
			"Dataset suitable for advanced analytics and business intelligence",
		},
		DataQuality: DataQuality{
			Score:           FallbackScore,
			Strengths:       []string{"Well-structured columns", "Multiple data types", "Comprehensive coverage"},
			Concerns:        []string{"Check for missing values", "Validate data consistency"},
			Recommendations: []string{"Perform data cleaning", "Consider additional features"},
		},
		BusinessValue: "This dataset provides comprehensive insights across multiple dimensions, suitable for strategic decision-making and predictive analytics.",
		ActionableInsights: []string{
			"Focus on key correlations identified in heatmaps",
			"Investigate outliers shown in box plots",
			"Leverage categorical distributions for segmentation",
			"Monitor trends in time series analysis",
		},
	}
}
