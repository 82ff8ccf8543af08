// Package mail defines the inbound message model and its validation and
// fingerprinting rules.
package mail

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	nmail "net/mail"
	"strings"
	"time"
)

// ErrInvalidAddress marks a message whose sender is not a parseable
// RFC 5322 address.
var ErrInvalidAddress = errors.New("invalid address")

// Message is a single inbound email to be triaged.
type Message struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id,omitempty"`
	From     string    `json:"from"`
	To       []string  `json:"to,omitempty"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	SendTime time.Time `json:"send_time,omitempty"`
}

// Validate checks that the sender parses as an RFC 5322 address. Recipients
// are accepted as-is; forwarding setups routinely produce unparseable To
// headers and the sender is the only identity triage decisions depend on.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return fmt.Errorf("%w: empty sender", ErrInvalidAddress)
	}
	if _, err := nmail.ParseAddress(m.From); err != nil {
		return fmt.Errorf("%w: sender %q: %v", ErrInvalidAddress, m.From, err)
	}
	return nil
}

// SenderAddress returns the sender's bare address, lowercased, with any
// display name stripped. Falls back to the raw From header when it does not
// parse.
func (m *Message) SenderAddress() string {
	addr, err := nmail.ParseAddress(m.From)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(m.From))
	}
	return strings.ToLower(addr.Address)
}

// Fingerprint returns a stable identity for dedup. Threads dedup on the
// thread ID so replies within one thread collapse to a single run; messages
// without a thread fall back to the message ID, then to header content.
func (m *Message) Fingerprint() string {
	h := sha256.New()
	switch {
	case m.ThreadID != "":
		fmt.Fprintf(h, "thread:%s", m.ThreadID)
	case m.ID != "":
		fmt.Fprintf(h, "id:%s", m.ID)
	default:
		fmt.Fprintf(h, "msg:%s\x00%s\x00%s", m.From, m.Subject, m.Body)
	}
	return hex.EncodeToString(h.Sum(nil))
}
