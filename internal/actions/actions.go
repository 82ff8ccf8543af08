// Package actions defines the structured output actions the draft composer
// offers to the model as tool definitions.
package actions

import (
	"encoding/json"
)

// Action is one structured output the model can choose when composing.
type Action interface {
	Name() string
	Description() string
	Parameters() json.RawMessage // JSON Schema
}

// ActionDef is the format for action definitions expected by the AI API,
// derived from the Action interface.
type ActionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Registry holds available actions and converts them to the AI API format.
// Definition order is preserved so prompts are deterministic.
type Registry struct {
	actions map[string]Action
	order   []string
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds an action to the registry, keyed by its Name.
func (r *Registry) Register(a Action) {
	if _, ok := r.actions[a.Name()]; !ok {
		r.order = append(r.order, a.Name())
	}
	r.actions[a.Name()] = a
}

// Get retrieves an action by name.
func (r *Registry) Get(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Defs returns the action definitions in registration order.
func (r *Registry) Defs() []ActionDef {
	out := make([]ActionDef, 0, len(r.order))
	for _, name := range r.order {
		a := r.actions[name]
		out = append(out, ActionDef{
			Name:        a.Name(),
			Description: a.Description(),
			InputSchema: a.Parameters(),
		})
	}
	return out
}

// static is a fixed action definition.
type static struct {
	name, desc string
	params     json.RawMessage
}

func (s *static) Name() string                { return s.name }
func (s *static) Description() string         { return s.desc }
func (s *static) Parameters() json.RawMessage { return s.params }

// Defaults returns a registry with the standard composing actions.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register(&static{
		name: "respond_draft",
		desc: "Draft a reply to the sender on the existing thread.",
		params: json.RawMessage(`{
			"type": "object",
			"properties": {
				"content": {"type": "string", "description": "The body of the reply."},
				"new_recipients": {"type": "array", "items": {"type": "string"}, "description": "Additional recipients to add, if any."}
			},
			"required": ["content"]
		}`),
	})
	r.Register(&static{
		name: "new_draft",
		desc: "Start a new email thread, for example to forward or delegate.",
		params: json.RawMessage(`{
			"type": "object",
			"properties": {
				"content": {"type": "string", "description": "The body of the new email."},
				"recipients": {"type": "array", "items": {"type": "string"}, "description": "Recipient addresses."},
				"subject": {"type": "string", "description": "Subject line."}
			},
			"required": ["content", "recipients", "subject"]
		}`),
	})
	r.Register(&static{
		name: "question",
		desc: "Ask the user a clarifying question before anything is sent.",
		params: json.RawMessage(`{
			"type": "object",
			"properties": {
				"content": {"type": "string", "description": "The question for the user."}
			},
			"required": ["content"]
		}`),
	})
	r.Register(&static{
		name: "ignore",
		desc: "Take no action on this email.",
		params: json.RawMessage(`{
			"type": "object",
			"properties": {
				"reason": {"type": "string", "description": "Why no action is needed."}
			},
			"required": ["reason"]
		}`),
	})
	return r
}
