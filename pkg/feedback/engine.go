// Package feedback grades a practice conversation through a completion
// provider and renders the result for the trainee.
package feedback

import (
	"context"
	"encoding/json"
	"strings"

	"acquisition-arena-be/internal/constant"
	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/pkg/grade"
	"acquisition-arena-be/pkg/llm"
	"acquisition-arena-be/pkg/result"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	module = "FEEDBACK"

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

type PromptInput struct {
	PersonaName    string
	PersonaTraits  any
	ParcelFeatures any
	Transcript     string
}

// Outcome is what the orchestrator persists. Degraded marks a result built
// because the completion could not be read.
type Outcome struct {
	Result   Result
	Markdown string
	Grade    string
	Degraded bool
}

type Options struct {
	Temperature float64
	MaxTokens   int
}

type Engine struct {
	provider llm.LLMProvider
	logger   logger.ILogger
	opts     Options
}

func NewEngine(provider llm.LLMProvider, log logger.ILogger, opts Options) *Engine {
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Engine{provider: provider, logger: log, opts: opts}
}

// BuildPrompt fills the coaching template. Traits and features are embedded
// as JSON so the model sees the same values the persona was compiled from.
func BuildPrompt(in PromptInput) string {
	r := strings.NewReplacer(
		"{{persona_name}}", in.PersonaName,
		"{{persona_characteristics}}", toJSON(in.PersonaTraits),
		"{{property_features}}", toJSON(in.ParcelFeatures),
		"{{transcript}}", in.Transcript,
	)
	return r.Replace(constant.FeedbackContextPrompt)
}

// Generate asks the provider for a grade. A failed call is an Err; content
// that cannot be parsed is an Ok degraded outcome.
func (e *Engine) Generate(ctx context.Context, in PromptInput) result.Result[Outcome] {
	ctx, span := otel.Tracer("acquisition-arena/feedback").Start(ctx, "feedback.generate")
	defer span.End()

	strict := e.provider.SupportsStrictSchema()
	span.SetAttributes(attribute.Bool("feedback.strict_schema", strict))

	opts := []llm.Option{
		llm.WithTemperature(e.opts.Temperature),
		llm.WithMaxTokens(e.opts.MaxTokens),
	}
	if strict {
		opts = append(opts, llm.WithJSONSchema(Schema()))
	} else {
		opts = append(opts, llm.WithJSONObject())
	}

	history := []llm.Message{
		{Role: llm.RoleSystem, Content: constant.FeedbackSystemPrompt},
		{Role: llm.RoleUser, Content: BuildPrompt(in)},
	}

	content, err := e.provider.Chat(ctx, history, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		e.logger.Error(module, "Completion request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return result.FromError[Outcome]("feedback completion", err)
	}

	parsed, err := Parse(content)
	if err != nil {
		span.SetAttributes(attribute.Bool("feedback.degraded", true))
		e.logger.Warn(module, "Completion could not be parsed, using degraded result", map[string]interface{}{
			"error":          err.Error(),
			"content_length": len(content),
		})
		return result.Ok(Degraded())
	}

	out := Outcome{
		Result:   parsed,
		Markdown: Render(parsed),
		Grade:    grade.Calculate(parsed.Score),
	}
	span.SetAttributes(attribute.Int("feedback.score", parsed.Score))
	e.logger.Info(module, "Feedback generated", map[string]interface{}{
		"score": parsed.Score,
		"grade": out.Grade,
	})
	return result.Ok(out)
}

// Degraded is the low-information outcome used when a completion is unusable.
func Degraded() Outcome {
	r := Result{Score: 0, Summary: constant.FeedbackDegradedSummary}
	return Outcome{
		Result:   r,
		Markdown: Render(r),
		Grade:    grade.Calculate(0),
		Degraded: true,
	}
}

func toJSON(v any) string {
	if v == nil {
		return "{}"
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
