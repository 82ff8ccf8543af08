package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/linnemanlabs/go-core/log"
)

const validYAML = `email: aryan@langchain.dev
full_name: Aryan Agarwal
name: Aryan
background: Aryan is a software engineer at LangChain.
timezone: PST8PDT
schedule_preferences: By default, meetings should be 30 minutes.
response_preferences: ""
rewrite_preferences: Aryan has a casual tone.
triage_no: |
  Automated emails from services that are spamming Aryan
  Cold outreach from vendors
triage_notify:
  - Docusign documents that need to be signed
triage_email: |
  Emails from clients that explicitly ask Aryan a question
memory: true
`

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	t.Parallel()

	p, err := Load(writeProfile(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Email != "aryan@langchain.dev" {
		t.Errorf("Email = %q", p.Email)
	}
	if p.Name != "Aryan" {
		t.Errorf("Name = %q", p.Name)
	}
	if len(p.TriageNo) != 2 {
		t.Errorf("TriageNo = %v, want 2 rules", p.TriageNo)
	}
	if len(p.TriageNotify) != 1 {
		t.Errorf("TriageNotify = %v, want 1 rule", p.TriageNotify)
	}
	if !p.Memory {
		t.Error("Memory = false, want true")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	t.Parallel()

	_, err := Load(writeProfile(t, validYAML+"shedule_preferences: typo\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoad_InvalidProfile(t *testing.T) {
	t.Parallel()

	_, err := Load(writeProfile(t, "email: a@b.c\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestStore_OpenAndCurrent(t *testing.T) {
	t.Parallel()

	s, err := Open(writeProfile(t, validYAML), log.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Current() == nil {
		t.Fatal("Current() = nil")
	}
	if s.Current().FullName != "Aryan Agarwal" {
		t.Errorf("FullName = %q", s.Current().FullName)
	}
}

func TestStore_Open_InvalidFails(t *testing.T) {
	t.Parallel()

	_, err := Open(writeProfile(t, "full_name: X\n"), log.Nop())
	if err == nil {
		t.Fatal("expected Open to fail on invalid profile")
	}
}

func TestStore_ReloadSwapsProfile(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, validYAML)
	s, err := Open(path, log.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	updated := validYAML + "background_preferences: CC Kam on hiring threads.\n"
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("rewrite profile: %v", err)
	}

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := s.Current().BackgroundPreferences; got != "CC Kam on hiring threads." {
		t.Errorf("BackgroundPreferences = %q after reload", got)
	}
}

func TestStore_FailedReloadKeepsActive(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, validYAML)
	s, err := Open(path, log.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	before := s.Current()

	if err := os.WriteFile(path, []byte("email: only\n"), 0o600); err != nil {
		t.Fatalf("rewrite profile: %v", err)
	}

	if err := s.Reload(context.Background()); err == nil {
		t.Fatal("expected Reload to fail on invalid profile")
	}
	if s.Current() != before {
		t.Error("failed reload replaced the active profile")
	}
}

func TestStore_ReloadIsAtomicSnapshot(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, validYAML)
	s, err := Open(path, log.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// A snapshot taken before reload must be unaffected by the swap.
	snap := s.Current()

	updated := "email: other@langchain.dev\nfull_name: Other Person\nname: Other\ntriage_no: |\n  Everything\n"
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("rewrite profile: %v", err)
	}
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if snap.Email != "aryan@langchain.dev" {
		t.Errorf("snapshot mutated by reload: Email = %q", snap.Email)
	}
	if s.Current().Email != "other@langchain.dev" {
		t.Errorf("Current() = %q, want reloaded profile", s.Current().Email)
	}
}
