package core

import (
	"context"
	"fmt"
	"strings"

	"intake-assistant/internal/llm"
	"intake-assistant/pkg"
)

// RecordFinder loads durable records by phone number.
type RecordFinder interface {
	FindProfile(ctx context.Context, phone string) (*pkg.Record, error)
}

// Summarizer produces a clinician-facing summary of a patient's stored
// history using the summary model.
type Summarizer struct {
	Store RecordFinder
	LLM   llm.Summarizer
}

// NewSummarizer constructs a summariser.
func NewSummarizer(store RecordFinder, client llm.Summarizer) *Summarizer {
	return &Summarizer{Store: store, LLM: client}
}

// Summarize returns the summary for phone.  A missing record yields an
// error wrapping pkg.ErrNotFound; a record without history yields
// NoHistoryMessage without calling the model.
func (s *Summarizer) Summarize(ctx context.Context, phone string) (string, error) {
	rec, err := s.Store.FindProfile(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", phone, err)
	}
	if strings.TrimSpace(rec.MedicalHistory) == "" {
		return NoHistoryMessage, nil
	}
	content := "Please summarize the following medical history:\n\n" + FormatHistory(rec)
	summary, err := s.LLM.Summarize(ctx, SummaryInstruction, content)
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", phone, err)
	}
	return summary, nil
}

// FormatHistory renders a record as plain text for the summary model.
func FormatHistory(rec *pkg.Record) string {
	h := pkg.DecodeHistory(rec.MedicalHistory)
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nAge: %s\nGender: %s\n", rec.Name, rec.Age, rec.Gender)
	if h.PriorConditions != "" {
		fmt.Fprintf(&b, "Prior conditions: %s\n", h.PriorConditions)
	}
	if h.PriorSurgeries != "" {
		fmt.Fprintf(&b, "Prior surgeries: %s\n", h.PriorSurgeries)
	}
	if h.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", h.Notes)
	}
	if len(h.Messages) > 0 {
		b.WriteString("\nConversation:\n")
		for _, m := range h.Messages {
			speaker := "Patient"
			if m.Role == pkg.RoleAssistant {
				speaker = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
		}
	}
	return b.String()
}
