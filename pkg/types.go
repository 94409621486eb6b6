package pkg

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by profile stores when no record exists for a
// phone number.
var ErrNotFound = errors.New("profile not found")

// Stage is the step of the onboarding sequence a session occupies.  Stages
// are stored explicitly on the session and only ever move forward in the
// order declared here, except for a reset.
type Stage string

const (
	StageLanguageUnselected Stage = "LANGUAGE_UNSELECTED"
	StageAwaitingIdentifier Stage = "AWAITING_IDENTIFIER"
	StageAwaitingName       Stage = "AWAITING_NAME"
	StageAwaitingAge        Stage = "AWAITING_AGE"
	StageAwaitingGender     Stage = "AWAITING_GENDER"
	StageAwaitingConditions Stage = "AWAITING_PRIOR_CONDITIONS"
	StageAwaitingSurgeries  Stage = "AWAITING_SURGERIES"
	StageOpenDialogue       Stage = "OPEN_DIALOGUE"
)

// Stages lists every stage in onboarding order.
var Stages = []Stage{
	StageLanguageUnselected,
	StageAwaitingIdentifier,
	StageAwaitingName,
	StageAwaitingAge,
	StageAwaitingGender,
	StageAwaitingConditions,
	StageAwaitingSurgeries,
	StageOpenDialogue,
}

// Index returns the position of s in the onboarding order, or -1 for an
// unknown stage.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// DefaultLanguage is used until the user explicitly picks a locale.
const DefaultLanguage = "en"

// MessageRole describes who authored a transcript entry.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one entry of the LLM-facing transcript.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Profile holds the intake answers collected during onboarding.  Age is kept
// as the text the user typed.
type Profile struct {
	Name            string `json:"name"`
	Age             string `json:"age"`
	Gender          string `json:"gender"`
	PriorConditions string `json:"prior_conditions"`
	PriorSurgeries  string `json:"prior_surgeries"`
}

// Session is the transient per-user conversation state.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	RecordID       string    `json:"record_id,omitempty"`
	Stage          Stage     `json:"stage"`
	Language       string    `json:"language"`
	LanguageChosen bool      `json:"language_chosen"`
	Profile        Profile   `json:"profile"`
	Messages       []Message `json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewSession returns the initial state for userID.
func NewSession(userID string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Stage:     StageLanguageUnselected,
		Language:  DefaultLanguage,
		CreatedAt: time.Now(),
	}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	return &c
}

// Adopt hydrates the session from a durable record and moves it straight to
// open dialogue.  The record's language is taken only when the user has not
// picked one in this session.
func (s *Session) Adopt(rec *Record, history *History) {
	s.RecordID = rec.PhoneNumber
	s.Profile.Name = rec.Name
	s.Profile.Age = rec.Age
	s.Profile.Gender = rec.Gender
	if history != nil {
		s.Profile.PriorConditions = history.PriorConditions
		s.Profile.PriorSurgeries = history.PriorSurgeries
		s.Messages = append([]Message(nil), history.Messages...)
	}
	if !s.LanguageChosen {
		if rec.Language != "" {
			s.Language = rec.Language
		}
		s.LanguageChosen = true
	}
	s.Stage = StageOpenDialogue
}

// Record is the durable profile row keyed by phone number.
type Record struct {
	PhoneNumber    string    `json:"phone_number"`
	Name           string    `json:"name"`
	Age            string    `json:"age"`
	Gender         string    `json:"gender"`
	MedicalHistory string    `json:"medical_history"`
	Language       string    `json:"language"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// History is the structured form of Record.MedicalHistory.
// Notes carries free text found in records that were not written as JSON.
type History struct {
	PriorConditions string    `json:"prior_conditions,omitempty"`
	PriorSurgeries  string    `json:"prior_surgeries,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	Messages        []Message `json:"messages,omitempty"`
}

// Inbound is one message received from the transport.
type Inbound struct {
	From string `json:"from"`
	Body string `json:"body"`
}

// Outbound carries the replies produced for one inbound message.
type Outbound struct {
	Replies []string `json:"replies"`
}
