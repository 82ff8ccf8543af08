// Package triage provides the business boundary for Herald's email triage.
// It defines the Service (dedup, lifecycle, async dispatch), Engine (pure LLM
// decision), Store interface (persistence), and domain models.
package triage
