package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"intake-assistant/internal/llm"
	"intake-assistant/pkg"
)

// systemPromptData feeds the system_prompt template.
type systemPromptData struct {
	Language string
	Profile  pkg.Profile
}

// SystemPrompt renders the instruction sent ahead of the transcript.
func (e *Engine) SystemPrompt(sess *pkg.Session) string {
	return e.Catalog.Text(MsgSystemPrompt, sess.Language, systemPromptData{
		Language: e.Catalog.LanguageName(sess.Language),
		Profile:  sess.Profile,
	})
}

// converse runs one open-dialogue turn.  The transcript only grows when the
// completion succeeds, so a failed call leaves no unanswered user turn.
func (e *Engine) converse(ctx context.Context, t *turn) string {
	sess := t.sess
	n := len(sess.Messages)
	history := append(sess.Messages[:n:n], pkg.Message{Role: pkg.RoleUser, Content: t.text})

	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.Message{Role: "system", Content: e.SystemPrompt(sess)})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	start := time.Now()
	answer, err := e.LLM.Chat(ctx, msgs)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = llm.ErrEmptyReply
	}
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		e.Metrics.Completion("not_configured", time.Since(start))
		t.log.Error("completion service not configured")
		return e.prompt(sess, MsgNotConfigured)
	case err != nil:
		e.Metrics.Completion("error", time.Since(start))
		t.log.Error("completion failed", "error", err, "duration", time.Since(start))
		return e.prompt(sess, MsgApology)
	}
	e.Metrics.Completion("ok", time.Since(start))

	sess.Messages = append(history, pkg.Message{Role: pkg.RoleAssistant, Content: answer})
	e.persistHistory(ctx, t)
	return answer
}

// persistHistory overwrites the durable transcript.  A session whose record
// was never created (for example after a failed create) gets one now.
func (e *Engine) persistHistory(ctx context.Context, t *turn) {
	sess := t.sess
	if sess.RecordID == "" {
		return
	}
	blob, err := pkg.EncodeHistory(sess.Profile, sess.Messages)
	if err != nil {
		e.storeFailed(t, "update_history", err)
		return
	}
	err = e.Store.UpdateHistory(ctx, sess.RecordID, blob)
	if errors.Is(err, pkg.ErrNotFound) {
		err = e.Store.CreateProfile(ctx, &pkg.Record{
			PhoneNumber:    sess.RecordID,
			Name:           sess.Profile.Name,
			Age:            sess.Profile.Age,
			Gender:         sess.Profile.Gender,
			MedicalHistory: blob,
			Language:       sess.Language,
		})
		if err != nil {
			e.storeFailed(t, "create", err)
		}
		return
	}
	if err != nil {
		e.storeFailed(t, "update_history", err)
	}
}
