package insights

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/charts"
	"github.com/KaramelBytes/dataloom-cli/internal/parser"
)

type fakeRuntime struct {
	text string
	err  error
	got  ai.GenerateRequest
}

func (f *fakeRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: f.text}}}}, nil
}

const salesCSV = "region,units,price\nNorth,10,2.5\nSouth,20,3.5\nEast,30,4.5\nWest,40,5.5\nNorth,50,6.5\n"

func salesRequest() Request {
	t := parser.Parse(salesCSV)
	profiles := analysis.Classify(t, analysis.Options{MaxCategoricalUnique: 2})
	return Request{
		FileName: "sales.csv",
		CSVText:  salesCSV,
		Profiles: profiles,
		Charts:   charts.Generate(t, profiles, charts.DefaultOptions()),
	}
}

const validAnswer = `{
  "keyInsights": ["Units rise with price"],
  "dataQuality": {"score": 92, "strengths": ["complete"], "concerns": [], "recommendations": ["add dates"]},
  "businessValue": "Pricing study",
  "actionableInsights": ["Raise prices in the West"]
}`

func TestBuildPromptMentionsDatasetShape(t *testing.T) {
	req := salesRequest()
	p := BuildPrompt(req)

	assert.True(t, strings.HasPrefix(p, "Analyze this comprehensive dataset and provide business insights:\n\nDataset: sales.csv\n"))
	assert.Contains(t, p, "Columns: region (categorical, 4 unique values), units (numerical, 5 unique values), price (numerical, 5 unique values)")
	assert.Contains(t, p, "- units: numerical type, 5 unique values, range: 10.00 to 50.00, avg: 30.00")
	assert.Contains(t, p, "- region: categorical type, 4 unique values\n")
	assert.Contains(t, p, "- Univariate Analysis: 6 charts")
	assert.Contains(t, p, "Sample data:\nregion,units,price\nNorth,10,2.5\nSouth,20,3.5\nEast,30,4.5\n\n")
	assert.NotContains(t, p, "West,40")
	assert.True(t, strings.HasSuffix(p, "}"))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}```\n"))
	assert.Equal(t, `{"a":1}`, StripFences(`  {"a":1}  `))
}

func TestGeneratorDecodesFencedAnswer(t *testing.T) {
	rt := &fakeRuntime{text: "```json\n" + validAnswer + "\n```"}
	g := &Generator{Runtime: rt, Model: "gemini-2.0-flash", Temperature: 0.3, MaxTokens: 2000}

	got, err := g.Generate(context.Background(), salesRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"Units rise with price"}, got.KeyInsights)
	assert.Equal(t, 92.0, got.DataQuality.Score)
	assert.Equal(t, []string{}, got.DataQuality.Concerns)
	assert.Equal(t, "Pricing study", got.BusinessValue)

	assert.True(t, rt.got.JSON)
	assert.Equal(t, 2000, rt.got.MaxTokens)
	assert.Equal(t, 0.3, rt.got.Temperature)
	require.Len(t, rt.got.Messages, 1)
	assert.Equal(t, "user", rt.got.Messages[0].Role)
}

func TestGeneratorRejectsInvalidAnswers(t *testing.T) {
	cases := map[string]string{
		"not json":       "I cannot help with that",
		"missing fields": `{"businessValue": "x"}`,
		"bad score":      `{"keyInsights": [], "dataQuality": {"score": 140}}`,
		"wrong type":     `{"keyInsights": "one", "dataQuality": {"score": 50}}`,
		"empty":          "```json\n```",
	}
	for name, answer := range cases {
		t.Run(name, func(t *testing.T) {
			g := &Generator{Runtime: &fakeRuntime{text: answer}, Model: "m"}
			_, err := g.Generate(context.Background(), salesRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestGeneratorPropagatesRuntimeError(t *testing.T) {
	boom := errors.New("boom")
	g := &Generator{Runtime: &fakeRuntime{err: boom}, Model: "m"}
	_, err := g.Generate(context.Background(), salesRequest())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidResponse)

	_, err = (&Generator{}).Generate(context.Background(), salesRequest())
	assert.Error(t, err)
}

func TestFallback(t *testing.T) {
	req := salesRequest()
	fb := Fallback(req.Profiles, 5, 12)

	require.Len(t, fb.KeyInsights, 5)
	assert.Equal(t, "Comprehensive analysis of 3 columns with 5 records", fb.KeyInsights[0])
	assert.Equal(t, "Generated 12 visualizations covering univariate, bivariate, and correlation analysis", fb.KeyInsights[1])
	assert.Equal(t, "Found 2 numerical and 1 categorical variables", fb.KeyInsights[2])
	assert.Equal(t, float64(FallbackScore), fb.DataQuality.Score)
	assert.Len(t, fb.ActionableInsights, 4)
	assert.Equal(t, fb, Fallback(req.Profiles, 5, 12))
}

func TestBuildPromptCutsWideSampleLines(t *testing.T) {
	wide := "h\n" + strings.Repeat("x", 5000) + "\n"
	prompt := BuildPrompt(Request{FileName: "wide.csv", CSVText: wide})
	assert.NotContains(t, prompt, strings.Repeat("x", 1025))
	assert.Contains(t, prompt, strings.Repeat("x", 1024))
}
