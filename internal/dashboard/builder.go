package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/charts"
	"github.com/KaramelBytes/dataloom-cli/internal/insights"
	"github.com/KaramelBytes/dataloom-cli/internal/parser"
)

// ErrNoData is returned for input without a header line.
var ErrNoData = errors.New("no data to display")

// DefaultInsightsTimeout bounds the insight call when Builder.Timeout is unset.
const DefaultInsightsTimeout = 30 * time.Second

// InsightSource produces narrative insights for a profiled dataset.
type InsightSource interface {
	Generate(ctx context.Context, req insights.Request) (*insights.Insights, error)
}

// Builder runs the whole pipeline for one upload.
type Builder struct {
	// Source may be nil, in which case the fallback narrative is always used.
	Source   InsightSource
	Timeout  time.Duration
	Classify analysis.Options
	Charts   charts.Options
	Logger   *zap.Logger
}

// Result is the dashboard plus the intermediate analysis it was built from.
type Result struct {
	ID              string                   `json:"id"`
	Payload         Payload                  `json:"dashboard"`
	ColumnAnalysis  []analysis.ColumnProfile `json:"columnAnalysis"`
	ChartCategories map[charts.Category]int  `json:"chartCategories"`
	// Fallback is set when the narrative did not come from the insight source.
	Fallback bool `json:"fallback"`
}

// Build parses csvText, profiles it, generates charts and assembles the
// dashboard. Insight failures never fail the build.
func (b *Builder) Build(ctx context.Context, csvText, fileName string) (*Result, error) {
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}
	t := parser.Parse(csvText)
	if len(t.Headers) == 0 {
		return nil, ErrNoData
	}
	id := uuid.NewString()
	log = log.With(zap.String("dashboard_id", id), zap.String("file", fileName))

	profiles := analysis.Classify(t, b.Classify)
	chartList := charts.Generate(t, profiles, b.Charts)
	log.Debug("analysis complete", zap.Int("rows", len(t.Rows)), zap.Int("columns", len(profiles)), zap.Int("charts", len(chartList)))

	ins, fallback := b.insights(ctx, log, insights.Request{
		FileName: fileName,
		CSVText:  csvText,
		Profiles: profiles,
		Charts:   chartList,
	})
	if fallback {
		ins = insights.Fallback(profiles, len(t.Rows), len(chartList))
	}

	payload := Assemble(Input{
		FileName: fileName,
		Rows:     len(t.Rows),
		Profiles: profiles,
		Charts:   chartList,
		Insights: ins,
	})
	log.Info("dashboard assembled", zap.Int("charts", len(chartList)), zap.Int("insights", len(payload.Insights)), zap.Bool("fallback", fallback))
	return &Result{
		ID:              id,
		Payload:         payload,
		ColumnAnalysis:  profiles,
		ChartCategories: CategoryCounts(chartList),
		Fallback:        fallback,
	}, nil
}

func (b *Builder) insights(ctx context.Context, log *zap.Logger, req insights.Request) (*insights.Insights, bool) {
	if b.Source == nil {
		return nil, true
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultInsightsTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ins, err := b.Source.Generate(ctx, req)
	if err != nil {
		log.Warn("insights unavailable, using fallback", zap.Error(err))
		return nil, true
	}
	if ins == nil {
		log.Warn("insight source returned nothing, using fallback")
		return nil, true
	}
	return ins, false
}

// CategoryCounts tallies charts per category, listing every category.
func CategoryCounts(chartList []charts.Chart) map[charts.Category]int {
	out := map[charts.Category]int{
		charts.CategoryUnivariate:  0,
		charts.CategoryBivariate:   0,
		charts.CategoryCorrelation: 0,
		charts.CategoryPairwise:    0,
		charts.CategoryCategorical: 0,
		charts.CategoryTimeseries:  0,
	}
	for k, v := range charts.Categories(chartList) {
		out[k] = v
	}
	return out
}
