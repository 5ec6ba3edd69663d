package insights

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
)

//go:embed schema/insights.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("insights.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("insights.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Generator asks an LLM runtime for insights. It makes a single call; retries
// on transient failures happen inside the runtime transport.
type Generator struct {
	Runtime     ai.Runtime
	Model       string
	Temperature float64
	MaxTokens   int
	Logger      *zap.Logger
}

// Generate builds the prompt for req, calls the runtime and decodes the answer.
// Output that is not schema-valid JSON yields an error wrapping ErrInvalidResponse.
func (g *Generator) Generate(ctx context.Context, req Request) (*Insights, error) {
	if g.Runtime == nil {
		return nil, errors.New("insights: no runtime configured")
	}
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}
	prompt := BuildPrompt(req)
	log.Debug("requesting insights",
		zap.String("model", g.Model),
		zap.String("dataset", req.FileName),
		zap.Int("prompt_tokens_est", utils.EstimateTokens(prompt)),
	)

	resp, err := g.Runtime.Generate(ctx, ai.GenerateRequest{
		Model:       g.Model,
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate insights: %w", err)
	}
	fields := []zap.Field{
		zap.String("model", g.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	}
	if cost, ok := ai.EstimateCostUSD(g.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens); ok {
		fields = append(fields, zap.Float64("cost_usd", cost))
	}
	if resp.RequestID != "" {
		fields = append(fields, zap.String("request_id", resp.RequestID))
	}
	log.Info("insights received", fields...)

	return Decode(resp.Text())
}

var fenceRe = regexp.MustCompile("```(?:json)?\\n?")

// StripFences removes markdown code fences around a JSON answer.
func StripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

// Decode validates model output against the insights schema and decodes it.
func Decode(text string) (*Insights, error) {
	cleaned := StripFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrInvalidResponse)
	}
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, describe(err))
	}
	var out Insights
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	out.normalize()
	return &out, nil
}

// describe flattens a validation error to its leaf messages.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			if v.ErrorKind == nil {
				return
			}
			path := "/" + strings.Join(v.InstanceLocation, "/")
			msgs = append(msgs, path+": "+v.ErrorKind.LocalizedString(printer))
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
