// Package draft composes reply drafts in the user's voice for triage
// outcomes that call for a response.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/herald/internal/actions"
	"github.com/linnemanlabs/herald/internal/mail"
	"github.com/linnemanlabs/herald/internal/profile"
	"github.com/linnemanlabs/herald/internal/prompt"
	"github.com/linnemanlabs/herald/internal/triage"
)

// ErrNoAction is returned when the model replies without choosing an action.
var ErrNoAction = errors.New("model selected no draft action")

// ComposeTokens caps the model output for a single compose or rewrite call.
const ComposeTokens = 2048

const composeTemplate = `You are {full_name}'s executive assistant. You are drafting an email on their behalf. {name} gets many emails and has entrusted you to respond in their voice.

Background on {full_name}:
{background}

Response preferences:
{response_preferences}

Scheduling preferences:
{schedule_preferences}

Preferences for meeting logistics:
{background_preferences}

The email was judged to need a response for this reason: {logic}

Here is the email thread:

From: {author}
To: {to}
Subject: {subject}

{email_thread}

Choose exactly one action. If you can draft a good reply, use respond_draft. If a fresh thread to someone else is needed, use new_draft. If you cannot draft without more input from {name}, use question. If on reflection no response is needed, use ignore.`

const rewriteTemplate = `You are {full_name}'s executive assistant. Rewrite the draft below so it matches how {name} writes. Keep the meaning, change only tone and style. Never mention that an assistant or any automation is involved.

{name}'s style notes:
{rewrite_preferences}

Draft:

{draft}

Reply with the rewritten draft only, no commentary.`

// Composer turns a triage decision into a concrete reply draft via
// tool-use structured output.
type Composer struct {
	provider triage.Provider
	registry *actions.Registry
	logger   log.Logger
}

// New creates a Composer. A nil registry gets the default action set.
func New(provider triage.Provider, registry *actions.Registry, logger log.Logger) *Composer {
	if registry == nil {
		registry = actions.Defaults()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Composer{provider: provider, registry: registry, logger: logger}
}

// Compose implements triage.Drafter. It returns the chosen action name and
// the drafted content.
func (c *Composer) Compose(ctx context.Context, prof *profile.Profile, msg *mail.Message, logic string) (string, string, error) {
	rendered, err := prompt.Render(composeTemplate, map[string]string{
		"full_name":              prof.FullName,
		"name":                   prof.Name,
		"background":             prof.Background,
		"response_preferences":   prof.ResponsePreferences,
		"schedule_preferences":   prof.SchedulePreferences,
		"background_preferences": prof.BackgroundPreferences,
		"logic":                  logic,
		"author":                 msg.From,
		"to":                     strings.Join(msg.To, ", "),
		"subject":                msg.Subject,
		"email_thread":           msg.Body,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: render compose prompt: %w", profile.ErrInvalid, err)
	}

	resp, err := c.provider.Send(ctx, &triage.LLMRequest{
		MaxTokens: ComposeTokens,
		Messages: []triage.Message{{
			Role:    "user",
			Content: []triage.ContentBlock{{Type: "text", Text: rendered}},
		}},
		Tools: c.registry.Defs(),
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", triage.ErrUpstream, err)
	}

	action, content, err := pickAction(resp)
	if err != nil {
		return "", "", err
	}

	if needsRewrite(action) && prof.RewritePreferences != "" {
		rewritten, err := c.rewrite(ctx, prof, content)
		if err != nil {
			c.logger.Warn(ctx, "rewrite pass failed, keeping first draft", "error", err)
		} else if rewritten != "" {
			content = rewritten
		}
	}

	return action, content, nil
}

func needsRewrite(action string) bool {
	return action == "respond_draft" || action == "new_draft"
}

func (c *Composer) rewrite(ctx context.Context, prof *profile.Profile, draft string) (string, error) {
	rendered, err := prompt.Render(rewriteTemplate, map[string]string{
		"full_name":           prof.FullName,
		"name":                prof.Name,
		"rewrite_preferences": prof.RewritePreferences,
		"draft":               draft,
	})
	if err != nil {
		return "", fmt.Errorf("render rewrite prompt: %w", err)
	}

	resp, err := c.provider.Send(ctx, &triage.LLMRequest{
		MaxTokens: ComposeTokens,
		Messages: []triage.Message{{
			Role:    "user",
			Content: []triage.ContentBlock{{Type: "text", Text: rendered}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", triage.ErrUpstream, err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// pickAction returns the first tool_use block of the response.
func pickAction(resp *triage.LLMResponse) (string, string, error) {
	for _, block := range resp.Content {
		if block.Type != "tool_use" {
			continue
		}
		var input struct {
			Content string `json:"content"`
			Reason  string `json:"reason"`
		}
		if err := json.Unmarshal(block.Input, &input); err != nil {
			return "", "", fmt.Errorf("decode %s input: %w", block.Name, err)
		}
		content := input.Content
		if content == "" {
			content = input.Reason
		}
		return block.Name, content, nil
	}
	return "", "", ErrNoAction
}
