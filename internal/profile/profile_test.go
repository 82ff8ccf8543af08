package profile

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func validProfile() *Profile {
	return &Profile{
		Email:        "aryan@langchain.dev",
		FullName:     "Aryan Agarwal",
		Name:         "Aryan",
		Background:   "Aryan is a software engineer.",
		Timezone:     "America/Los_Angeles",
		TriageNo:     RuleList{"Automated calendar invite acceptances"},
		TriageNotify: RuleList{"Docusign requests"},
		TriageEmail:  RuleList{"Emails from clients that explicitly ask a question"},
	}
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	if err := validProfile().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Profile)
		errSubstr string
	}{
		{"missing email", func(p *Profile) { p.Email = "" }, "email is required"},
		{"missing full name", func(p *Profile) { p.FullName = "  " }, "full_name is required"},
		{"missing short name", func(p *Profile) { p.Name = "" }, "name is required"},
		{"no rules at all", func(p *Profile) {
			p.TriageNo, p.TriageNotify, p.TriageEmail = nil, nil, nil
		}, "at least one triage rule"},
		{"bad timezone", func(p *Profile) { p.Timezone = "Mars/Olympus_Mons" }, "timezone"},
		{"unknown placeholder in custom template", func(p *Profile) {
			p.TriagePrompt = "Hi {nobody}"
		}, "unknown placeholder {nobody}"},
		{"broken custom template", func(p *Profile) {
			p.TriagePrompt = "Hi {name"
		}, "custom_triage_prompt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := validProfile()
			tt.mutate(p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.errSubstr) {
				t.Errorf("error = %q, want substring %q", err, tt.errSubstr)
			}
		})
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	t.Parallel()

	p := &Profile{}
	err := p.Validate()
	if err == nil {
		t.Fatal("expected error for empty profile")
	}
	for _, want := range []string{"email", "full_name", "name", "triage rule"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidate_CustomTemplateKnownPlaceholders(t *testing.T) {
	t.Parallel()

	p := validProfile()
	p.TriagePrompt = "{full_name} {background} {name} {triage_no} {triage_email} " +
		"{triage_notify} {fewshotexamples} {author} {to} {subject} {email_thread}"
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() with all known placeholders = %v, want nil", err)
	}
}

func TestRuleList_UnmarshalScalar(t *testing.T) {
	t.Parallel()

	in := `triage_no: |
  Cold outreach from vendors
  Newsletter subscriptions
`
	var p Profile
	if err := yaml.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(p.TriageNo) != 2 {
		t.Fatalf("rules = %v, want 2 entries", p.TriageNo)
	}
	if p.TriageNo[0] != "Cold outreach from vendors" {
		t.Errorf("rule[0] = %q", p.TriageNo[0])
	}
}

func TestRuleList_UnmarshalSequence(t *testing.T) {
	t.Parallel()

	in := `triage_email:
  - Direct questions from teammates
  - "  Meeting requests  "
  - ""
`
	var p Profile
	if err := yaml.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(p.TriageEmail) != 2 {
		t.Fatalf("rules = %v, want 2 entries (empty dropped)", p.TriageEmail)
	}
	if p.TriageEmail[1] != "Meeting requests" {
		t.Errorf("rule[1] = %q, want trimmed", p.TriageEmail[1])
	}
}

func TestRuleList_UnmarshalMapRejected(t *testing.T) {
	t.Parallel()

	in := `triage_no:
  key: value
`
	var p Profile
	if err := yaml.Unmarshal([]byte(in), &p); err == nil {
		t.Fatal("expected error for mapping rule list")
	}
}

func TestRuleList_String(t *testing.T) {
	t.Parallel()

	r := RuleList{"a", "b"}
	want := "- a\n- b\n"
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (RuleList{}).String(); got != "" {
		t.Errorf("empty String() = %q, want empty", got)
	}
}

func TestLocation(t *testing.T) {
	t.Parallel()

	p := validProfile()
	if loc := p.Location(); loc.String() != "America/Los_Angeles" {
		t.Errorf("Location() = %v", loc)
	}

	p.Timezone = ""
	if loc := p.Location(); loc.String() != "UTC" {
		t.Errorf("Location() with empty tz = %v, want UTC", loc)
	}
}
