package triage

import (
	nmail "net/mail"
	"strings"

	"github.com/linnemanlabs/herald/internal/mail"
)

// DefaultExampleLimit caps the examples rendered into one prompt.
const DefaultExampleLimit = 5

// RenderExamples formats previous completed decisions as few-shot examples
// for the triage prompt. Decisions from the exact sender address are
// preferred; matching is on the full address, never the display name.
// Returns "" when there is nothing usable.
func RenderExamples(results []*Result, msg *mail.Message, limit int) string {
	if limit <= 0 {
		limit = DefaultExampleLimit
	}

	sender := msg.SenderAddress()
	var matched, others []*Result
	for _, r := range results {
		if r.Status != StatusComplete || !r.Outcome.Valid() {
			continue
		}
		if senderKey(r.From) == sender {
			matched = append(matched, r)
		} else {
			others = append(others, r)
		}
	}

	picked := matched
	if len(picked) > limit {
		picked = picked[:limit]
	}
	for _, r := range others {
		if len(picked) >= limit {
			break
		}
		picked = append(picked, r)
	}
	if len(picked) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Here are some examples of previous decisions:\n")
	for _, r := range picked {
		b.WriteString("\nExample:\nFrom: ")
		b.WriteString(r.From)
		b.WriteString("\nSubject: ")
		b.WriteString(r.Subject)
		b.WriteString("\nDecision: ")
		b.WriteString(string(r.Outcome))
		if r.Logic != "" {
			b.WriteString("\nReasoning: ")
			b.WriteString(r.Logic)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// senderKey canonicalizes a From header to its bare lowercase address.
func senderKey(from string) string {
	addr, err := nmail.ParseAddress(from)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(from))
	}
	return strings.ToLower(addr.Address)
}
