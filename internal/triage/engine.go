package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/herald/internal/mail"
	"github.com/linnemanlabs/herald/internal/profile"
	"github.com/linnemanlabs/herald/internal/prompt"
)

var tracer = otel.Tracer("github.com/linnemanlabs/herald/internal/triage")

// ResponseTokens bounds the decision reply. The decision is a short JSON
// object; anything near this limit is already malformed.
const ResponseTokens = 1024

// EngineHooks are optional callbacks for instrumentation.
type EngineHooks struct {
	OnLLMCall  func(inputTokens, outputTokens int, duration float64)
	OnComplete func(e *CompleteEvent)
}

// CompleteEvent summarizes a finished engine run for metrics.
type CompleteEvent struct {
	Status    Status
	Outcome   Outcome
	Model     string
	Duration  float64
	TokensIn  int
	TokensOut int
}

// Engine makes a single triage decision per message. It is pure: no store
// access, no retries, no notification side effects.
type Engine struct {
	provider Provider
	logger   log.Logger
	hooks    EngineHooks
}

// NewEngine creates a new triage engine with the given dependencies.
func NewEngine(provider Provider, logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		provider: provider,
		logger:   logger,
		hooks:    hooks,
	}
}

// RunResult is the outcome of a single engine run.
type RunResult struct {
	Status      Status
	Outcome     Outcome
	Logic       string
	Prompt      string
	Model       string
	CompletedAt time.Time
	Duration    float64
	TokensIn    int
	TokensOut   int
	Err         error
}

// Run renders the triage prompt for the message under the given profile,
// makes one provider call, and parses the decision. Errors never map to an
// outcome: a failed run carries Err and no Outcome.
func (e *Engine) Run(ctx context.Context, id string, prof *profile.Profile, msg *mail.Message, examples string) *RunResult {
	start := time.Now()
	rr := &RunResult{Status: StatusFailed}

	finish := func() *RunResult {
		rr.CompletedAt = time.Now()
		rr.Duration = time.Since(start).Seconds()
		if e.hooks.OnComplete != nil {
			e.hooks.OnComplete(&CompleteEvent{
				Status:    rr.Status,
				Outcome:   rr.Outcome,
				Model:     rr.Model,
				Duration:  rr.Duration,
				TokensIn:  rr.TokensIn,
				TokensOut: rr.TokensOut,
			})
		}
		return rr
	}

	L := e.logger.With("triage_id", id, "sender", msg.SenderAddress())

	rendered, err := buildTriagePrompt(prof, msg, examples)
	if err != nil {
		L.Error(ctx, err, "triage prompt render failed")
		rr.Err = err
		return finish()
	}
	rr.Prompt = rendered

	ctx, span := tracer.Start(ctx, "llm.call", trace.WithAttributes(
		attribute.String("gen_ai.operation.name", "llm.call"),
		attribute.String("herald.triage.id", id),
		attribute.String("herald.message.fingerprint", msg.Fingerprint()),
	))
	defer span.End()
	span.AddEvent("llm.request", trace.WithAttributes(
		attribute.String("llm.request.body", rendered),
	))

	llmStart := time.Now()
	resp, err := e.provider.Send(ctx, &LLMRequest{
		MaxTokens: ResponseTokens,
		Messages: []Message{
			{Role: "user", Content: []ContentBlock{{Type: "text", Text: rendered}}},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		L.Error(ctx, err, "llm call failed")
		rr.Err = fmt.Errorf("%w: %w", ErrUpstream, err)
		return finish()
	}

	llmDur := time.Since(llmStart).Seconds()
	rr.Model = resp.Model
	rr.TokensIn = resp.Usage.InputTokens
	rr.TokensOut = resp.Usage.OutputTokens

	span.SetAttributes(
		attribute.String("gen_ai.response.model", resp.Model),
		attribute.Int("gen_ai.usage.input_tokens", resp.Usage.InputTokens),
		attribute.Int("gen_ai.usage.output_tokens", resp.Usage.OutputTokens),
	)
	if e.hooks.OnLLMCall != nil {
		e.hooks.OnLLMCall(resp.Usage.InputTokens, resp.Usage.OutputTokens, llmDur)
	}

	raw := textContent(resp)
	span.AddEvent("llm.response", trace.WithAttributes(
		attribute.String("llm.response.body", raw),
	))

	L.Info(ctx, "llm response",
		"stop_reason", resp.StopReason,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)

	outcome, logic, err := parseDecision(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		L.Error(ctx, err, "decision parse failed", "raw", raw)
		rr.Err = err
		return finish()
	}

	rr.Status = StatusComplete
	rr.Outcome = outcome
	rr.Logic = logic

	L.Info(ctx, "triage decision",
		"outcome", outcome,
		"duration", time.Since(start).Seconds(),
	)
	return finish()
}

// textContent joins the text blocks of a response.
func textContent(resp *LLMResponse) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// buildTriagePrompt renders the profile's custom template, or the built-in
// default, with the message and rule lists filled in.
func buildTriagePrompt(prof *profile.Profile, msg *mail.Message, examples string) (string, error) {
	tmpl := prof.TriagePrompt
	if tmpl == "" {
		tmpl = defaultTriagePrompt
	}

	vars := map[string]string{
		"full_name":       prof.FullName,
		"background":      prof.Background,
		"name":            prof.Name,
		"triage_no":       prof.TriageNo.String(),
		"triage_email":    prof.TriageEmail.String(),
		"triage_notify":   prof.TriageNotify.String(),
		"fewshotexamples": examples,
		"author":          msg.From,
		"to":              strings.Join(msg.To, ", "),
		"subject":         msg.Subject,
		"email_thread":    msg.Body,
	}

	rendered, err := prompt.Render(tmpl, vars)
	if err != nil {
		return "", fmt.Errorf("%w: triage prompt: %v", profile.ErrInvalid, err)
	}
	return rendered, nil
}

const defaultTriagePrompt = `You are {full_name}'s executive assistant. You are a top-notch executive assistant who cares about {name} performing as well as possible.

{background}

{full_name} gets lots of emails. Your job is to categorize the below email to see whether it is worth responding to.

Emails that are not worth responding to:
{triage_no}
Emails that are worth responding to:
{triage_email}
There are also other things that {name} should know about, but don't require an email response. For these, you should notify {name} (using the "notify" response). Examples of this include:
{triage_notify}

For emails not worth responding to, respond "no". For something where {name} should respond over email, respond "email". If it's important to notify {name}, but no email is required, respond "notify". If you are unsure, respond "notify" rather than "no": it is better for {name} to see an email twice than to miss it.

When deciding who an email is from, compare full email addresses, never display names. A display name that matches {name} does not make the sender {name}.

{fewshotexamples}

Please determine how to handle the below email thread:

From: {author}
To: {to}
Subject: {subject}

{email_thread}

Reply with a single JSON object of the exact form {{"logic": "<your reasoning>", "response": "<no|email|notify|question>"}} and nothing else.`
