package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-assistant/pkg"
)

func TestSummarizeMissingRecord(t *testing.T) {
	s := NewSummarizer(newMemStore(), &scriptedLLM{})
	_, err := s.Summarize(context.Background(), "+911")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSummarizeEmptyHistorySkipsModel(t *testing.T) {
	store := newMemStore()
	store.records["+911"] = pkg.Record{PhoneNumber: "+911", Name: "Asha"}
	client := &scriptedLLM{}

	got, err := NewSummarizer(store, client).Summarize(context.Background(), "+911")
	require.NoError(t, err)
	assert.Equal(t, NoHistoryMessage, got)
	assert.Equal(t, 0, client.callCount())
}

func TestSummarizeSendsFormattedHistory(t *testing.T) {
	history, err := pkg.EncodeHistory(pkg.Profile{PriorConditions: "diabetes", PriorSurgeries: "appendectomy"}, []pkg.Message{
		{Role: pkg.RoleUser, Content: "my feet feel numb"},
		{Role: pkg.RoleAssistant, Content: "How long has this been happening?"},
	})
	require.NoError(t, err)
	store := newMemStore()
	store.records["+911"] = pkg.Record{PhoneNumber: "+911", Name: "Ravi", Age: "52", Gender: "Male", MedicalHistory: history}
	client := &scriptedLLM{replies: []scriptedReply{{Content: "52M, diabetic, neuropathy symptoms."}}}

	got, err := NewSummarizer(store, client).Summarize(context.Background(), "+911")
	require.NoError(t, err)
	assert.Equal(t, "52M, diabetic, neuropathy symptoms.", got)

	require.Equal(t, 1, client.callCount())
	sent := client.calls[0]
	assert.Equal(t, SummaryInstruction, sent[0].Content)
	assert.Contains(t, sent[1].Content, "Name: Ravi")
	assert.Contains(t, sent[1].Content, "Prior conditions: diabetes")
	assert.Contains(t, sent[1].Content, "Prior surgeries: appendectomy")
	assert.Contains(t, sent[1].Content, "Patient: my feet feel numb")
	assert.Contains(t, sent[1].Content, "Assistant: How long has this been happening?")
}

func TestSummarizeModelError(t *testing.T) {
	store := newMemStore()
	store.records["+911"] = pkg.Record{PhoneNumber: "+911", MedicalHistory: "free text notes"}
	client := &scriptedLLM{replies: []scriptedReply{{Err: errors.New("status 500")}}}

	_, err := NewSummarizer(store, client).Summarize(context.Background(), "+911")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestFormatHistoryKeepsPlainTextNotes(t *testing.T) {
	out := FormatHistory(&pkg.Record{Name: "A", MedicalHistory: "allergic to penicillin"})
	assert.Contains(t, out, "Notes: allergic to penicillin")
	assert.NotContains(t, out, "Conversation:")
}
