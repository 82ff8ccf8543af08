// Package profile holds the assistant user's configuration profile: who the
// user is, how they want mail handled, and the triage rule lists. The active
// profile is an immutable snapshot; Reload swaps it atomically so in-flight
// work keeps the snapshot it started with.
package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/herald/internal/prompt"
)

// ErrInvalid marks any profile load or validation failure.
var ErrInvalid = errors.New("invalid profile")

// Profile is one user's assistant configuration.
type Profile struct {
	Email                 string   `yaml:"email"`
	FullName              string   `yaml:"full_name"`
	Name                  string   `yaml:"name"`
	Background            string   `yaml:"background"`
	SchedulePreferences   string   `yaml:"schedule_preferences"`
	BackgroundPreferences string   `yaml:"background_preferences"`
	ResponsePreferences   string   `yaml:"response_preferences"`
	RewritePreferences    string   `yaml:"rewrite_preferences"`
	Timezone              string   `yaml:"timezone"`
	TriageNo              RuleList `yaml:"triage_no"`
	TriageNotify          RuleList `yaml:"triage_notify"`
	TriageEmail           RuleList `yaml:"triage_email"`
	Memory                bool     `yaml:"memory"`
	TriagePrompt          string   `yaml:"custom_triage_prompt"`
}

// RuleList is a list of triage rule lines. It accepts either a YAML block
// scalar (one rule per line) or a sequence of strings.
type RuleList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RuleList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*r = splitRules(s)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		out := make(RuleList, 0, len(items))
		for _, it := range items {
			if it = strings.TrimSpace(it); it != "" {
				out = append(out, it)
			}
		}
		*r = out
		return nil
	default:
		return fmt.Errorf("rule list must be a string or a sequence of strings (line %d)", value.Line)
	}
}

// String renders the rules as a bulleted block for prompt interpolation.
func (r RuleList) String() string {
	var b strings.Builder
	for _, rule := range r {
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteByte('\n')
	}
	return b.String()
}

func splitRules(s string) RuleList {
	var out RuleList
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// knownPlaceholders is the full set a custom triage template may reference.
var knownPlaceholders = map[string]bool{
	"full_name":       true,
	"background":      true,
	"name":            true,
	"triage_no":       true,
	"triage_email":    true,
	"triage_notify":   true,
	"fewshotexamples": true,
	"author":          true,
	"to":              true,
	"subject":         true,
	"email_thread":    true,
}

// Validate checks the profile for completeness. All failures wrap ErrInvalid.
func (p *Profile) Validate() error {
	var errs []error

	if strings.TrimSpace(p.Email) == "" {
		errs = append(errs, errors.New("email is required"))
	}
	if strings.TrimSpace(p.FullName) == "" {
		errs = append(errs, errors.New("full_name is required"))
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}

	if len(p.TriageNo)+len(p.TriageNotify)+len(p.TriageEmail) == 0 {
		errs = append(errs, errors.New("at least one triage rule is required (triage_no, triage_notify, or triage_email)"))
	}

	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("timezone %q: %w", p.Timezone, err))
		}
	}

	if p.TriagePrompt != "" {
		names, err := prompt.Placeholders(p.TriagePrompt)
		if err != nil {
			errs = append(errs, fmt.Errorf("custom_triage_prompt: %w", err))
		}
		for _, n := range names {
			if !knownPlaceholders[n] {
				errs = append(errs, fmt.Errorf("custom_triage_prompt references unknown placeholder {%s}", n))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Location resolves the profile timezone, defaulting to UTC.
func (p *Profile) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
