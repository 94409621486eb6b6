package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHistoryEncodedBlob(t *testing.T) {
	blob, err := EncodeHistory(Profile{Name: "ignored", PriorConditions: "asthma", PriorSurgeries: "none"},
		[]Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}})
	require.NoError(t, err)
	assert.NotContains(t, blob, "ignored", "identity fields live in their own columns")

	h := DecodeHistory(blob)
	assert.Equal(t, "asthma", h.PriorConditions)
	assert.Equal(t, "none", h.PriorSurgeries)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, RoleAssistant, h.Messages[1].Role)
}

func TestDecodeHistoryEmptyAndPlainText(t *testing.T) {
	assert.Equal(t, &History{}, DecodeHistory("   "))
	assert.Equal(t, &History{Notes: "diabetic since 2010"}, DecodeHistory("diabetic since 2010"))
}

func TestSessionAdoptKeepsChosenLanguage(t *testing.T) {
	rec := &Record{PhoneNumber: "+911", Name: "Asha", Age: "30", Gender: "Female", Language: "ta"}

	s := NewSession("whatsapp:+911")
	s.Adopt(rec, &History{PriorConditions: "asthma"})
	assert.Equal(t, StageOpenDialogue, s.Stage)
	assert.Equal(t, "ta", s.Language)
	assert.True(t, s.LanguageChosen)
	assert.Equal(t, "asthma", s.Profile.PriorConditions)

	s = NewSession("whatsapp:+911")
	s.Language, s.LanguageChosen = "hi", true
	s.Adopt(rec, nil)
	assert.Equal(t, "hi", s.Language)
	assert.Equal(t, "+911", s.RecordID)
}

func TestStageOrder(t *testing.T) {
	assert.Equal(t, 0, StageLanguageUnselected.Index())
	assert.Equal(t, len(Stages)-1, StageOpenDialogue.Index())
	assert.Equal(t, -1, Stage("BOGUS").Index())
}

func TestCloneCopiesMessages(t *testing.T) {
	s := NewSession("u")
	s.Messages = []Message{{Role: RoleUser, Content: "a"}}
	c := s.Clone()
	c.Messages[0].Content = "b"
	assert.Equal(t, "a", s.Messages[0].Content)
}
