package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"intake-assistant/internal/llm"
	"intake-assistant/internal/metrics"
	"intake-assistant/internal/session"
	"intake-assistant/pkg"
)

// ProfileStore is the durable record store used by the engine.  Failures
// are never fatal to a turn.
type ProfileStore interface {
	FindProfile(ctx context.Context, phone string) (*pkg.Record, error)
	CreateProfile(ctx context.Context, rec *pkg.Record) error
	UpdateHistory(ctx context.Context, phone, history string) error
	UpdateLanguage(ctx context.Context, phone, language string) error
}

// Options holds the control words recognised at every stage.
type Options struct {
	ResetCommand string
	StopCommand  string
}

// Engine advances the per-user onboarding state machine and hands the open
// conversation to the completion service.
type Engine struct {
	Sessions *session.Store
	Store    ProfileStore
	LLM      llm.Client
	Catalog  *Catalog
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	resetCmd string
	stopCmd  string
}

// NewEngine wires an engine.  Empty commands default to "reset" and "stop";
// a nil catalog uses the embedded locale table.
func NewEngine(sessions *session.Store, store ProfileStore, client llm.Client, catalog *Catalog, m *metrics.Metrics, logger *slog.Logger, opts Options) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		Sessions: sessions,
		Store:    store,
		LLM:      client,
		Catalog:  catalog,
		Metrics:  m,
		Logger:   logger,
		resetCmd: strings.ToLower(strings.TrimSpace(opts.ResetCommand)),
		stopCmd:  strings.ToLower(strings.TrimSpace(opts.StopCommand)),
	}
	if e.resetCmd == "" {
		e.resetCmd = "reset"
	}
	if e.stopCmd == "" {
		e.stopCmd = "stop"
	}
	return e
}

// Commands returns the normalised reset and stop control words.
func (e *Engine) Commands() (reset, stop string) { return e.resetCmd, e.stopCmd }

// turn is the state of one inbound message being processed.
type turn struct {
	sess *pkg.Session
	text string
	log  *slog.Logger
}

// Handle processes one inbound message to completion and returns the
// replies to send.  The sender's session stays locked for the whole turn,
// including the completion call.
func (e *Engine) Handle(ctx context.Context, in pkg.Inbound) (out pkg.Outbound) {
	h := e.Sessions.Acquire(ctx, in.From)
	defer h.Release()

	sess := h.Session()
	log := e.Logger.With("user_id", in.From, "session_id", sess.ID, "stage", string(sess.Stage))
	defer func() {
		if r := recover(); r != nil {
			log.Error("turn panicked", "panic", r)
			out = reply(e.Catalog.Text(MsgApology, sess.Language, nil))
		}
	}()

	e.Metrics.Turn(string(sess.Stage))
	text := strings.TrimSpace(in.Body)

	switch strings.ToLower(text) {
	case e.resetCmd:
		sess = h.Reset()
		log.Info("session reset", "new_session_id", sess.ID)
		return reply(e.Catalog.Text(MsgLanguageMenu, e.Catalog.DefaultLanguage(), nil))
	case e.stopCmd:
		log.Info("session stopped")
		return reply(e.Catalog.Text(MsgGoodbye, sess.Language, nil))
	}

	return reply(e.step(ctx, &turn{sess: sess, text: text, log: log}))
}

func (e *Engine) step(ctx context.Context, t *turn) string {
	switch t.sess.Stage {
	case pkg.StageLanguageUnselected:
		return e.selectLanguage(t)
	case pkg.StageAwaitingIdentifier:
		return e.identify(ctx, t)
	case pkg.StageAwaitingName:
		if t.text == "" {
			return e.prompt(t.sess, MsgAskName)
		}
		t.sess.Profile.Name = t.text
		t.sess.Stage = pkg.StageAwaitingAge
		return e.prompt(t.sess, MsgAskAge)
	case pkg.StageAwaitingAge:
		if t.text == "" {
			return e.prompt(t.sess, MsgAskAge)
		}
		t.sess.Profile.Age = t.text
		t.sess.Stage = pkg.StageAwaitingGender
		return e.prompt(t.sess, MsgAskGender)
	case pkg.StageAwaitingGender:
		return e.recordGender(ctx, t)
	case pkg.StageAwaitingConditions:
		t.sess.Profile.PriorConditions = t.text
		t.sess.Stage = pkg.StageAwaitingSurgeries
		return e.prompt(t.sess, MsgAskSurgeries)
	case pkg.StageAwaitingSurgeries:
		t.sess.Profile.PriorSurgeries = t.text
		t.sess.Stage = pkg.StageOpenDialogue
		t.log.Info("intake complete")
		return e.prompt(t.sess, MsgIntakeComplete)
	case pkg.StageOpenDialogue:
		return e.converse(ctx, t)
	default:
		t.log.Error("unknown stage; restarting onboarding")
		t.sess.Stage = pkg.StageLanguageUnselected
		return e.Catalog.Text(MsgLanguageMenu, e.Catalog.DefaultLanguage(), nil)
	}
}

// selectLanguage accepts only menu tokens; anything else re-sends the menu
// unchanged.
func (e *Engine) selectLanguage(t *turn) string {
	lang, ok := e.Catalog.LanguageByToken(t.text)
	if !ok {
		return e.Catalog.Text(MsgLanguageMenu, e.Catalog.DefaultLanguage(), nil)
	}
	t.sess.Language = lang.Code
	t.sess.LanguageChosen = true
	t.sess.Stage = pkg.StageAwaitingIdentifier
	t.log.Info("language selected", "language", lang.Code)
	return e.prompt(t.sess, MsgAskIdentifier)
}

// identify looks the identifier up in the durable store.  A known patient
// skips the rest of onboarding.
func (e *Engine) identify(ctx context.Context, t *turn) string {
	if t.text == "" {
		return e.prompt(t.sess, MsgAskIdentifier)
	}
	rec, err := e.Store.FindProfile(ctx, t.text)
	switch {
	case err == nil:
		t.sess.Adopt(rec, pkg.DecodeHistory(rec.MedicalHistory))
		t.log.Info("returning patient identified", "record_id", rec.PhoneNumber)
		if rec.Language != t.sess.Language {
			if err := e.Store.UpdateLanguage(ctx, rec.PhoneNumber, t.sess.Language); err != nil {
				e.storeFailed(t, "update_language", err)
			}
		}
		return e.prompt(t.sess, MsgWelcomeBack)
	case !errors.Is(err, pkg.ErrNotFound):
		// Treated as a new patient; creation later fails loudly if the
		// record did exist.
		e.storeFailed(t, "find", err)
	}
	t.sess.RecordID = t.text
	t.sess.Stage = pkg.StageAwaitingName
	return e.prompt(t.sess, MsgAskName)
}

// recordGender stores the answer and creates the durable record from the
// now complete identity fields.
func (e *Engine) recordGender(ctx context.Context, t *turn) string {
	gender, ok := genderTokens[t.text]
	if !ok {
		gender = t.text
	}
	t.sess.Profile.Gender = gender
	t.sess.Stage = pkg.StageAwaitingConditions

	rec := &pkg.Record{
		PhoneNumber: t.sess.RecordID,
		Name:        t.sess.Profile.Name,
		Age:         t.sess.Profile.Age,
		Gender:      gender,
		Language:    t.sess.Language,
	}
	if err := e.Store.CreateProfile(ctx, rec); err != nil {
		e.storeFailed(t, "create", err)
	} else {
		t.log.Info("profile created", "record_id", rec.PhoneNumber)
	}
	return e.prompt(t.sess, MsgAskConditions)
}

// prompt renders id in the session's language with the profile as data.
func (e *Engine) prompt(sess *pkg.Session, id string) string {
	return e.Catalog.Text(id, sess.Language, sess.Profile)
}

func (e *Engine) storeFailed(t *turn, op string, err error) {
	e.Metrics.StoreError(op)
	t.log.Error("profile store call failed", "op", op, "record_id", t.sess.RecordID, "error", err)
}

func reply(texts ...string) pkg.Outbound {
	return pkg.Outbound{Replies: texts}
}
