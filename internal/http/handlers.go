package http

import (
	"context"
	"embed"
	"encoding/json"
	"encoding/xml"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"intake-assistant/internal/core"
	"intake-assistant/internal/llm"
	"intake-assistant/pkg"
)

//go:embed templates/*.html
var templateFS embed.FS

// Conversation processes one inbound message into its replies.
type Conversation interface {
	Handle(ctx context.Context, in pkg.Inbound) pkg.Outbound
}

// HistorySummarizer produces a clinician summary for a stored record.
type HistorySummarizer interface {
	Summarize(ctx context.Context, phone string) (string, error)
}

// IndexData is rendered on the instructions page.
type IndexData struct {
	Languages    []core.Language
	ResetCommand string
	StopCommand  string
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to http.Server.
type Server struct {
	Engine     Conversation
	Summarizer HistorySummarizer
	Metrics    http.Handler
	Templates  *template.Template
	Index      IndexData
	Logger     *slog.Logger

	router chi.Router
}

// NewServer constructs a Server and its routes.  summarizer and metrics may
// be nil, in which case the corresponding routes are not mounted.
func NewServer(engine Conversation, summarizer HistorySummarizer, metrics http.Handler, index IndexData, logger *slog.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Engine:     engine,
		Summarizer: summarizer,
		Metrics:    metrics,
		Templates:  tmpl,
		Index:      index,
		Logger:     logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Get("/", s.handleIndex)
	r.Get("/check", s.handleCheck)
	r.Post("/webhook", s.handleWebhook)
	r.Post("/api/messages", s.handleMessage)
	if s.Summarizer != nil {
		r.Get("/api/profiles/{phone}/summary", s.handleSummary)
	}
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

// ServeHTTP dispatches to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// twimlResponse is the Twilio messaging response document.  Each reply
// becomes its own <Message>.
type twimlResponse struct {
	XMLName  xml.Name `xml:"Response"`
	Messages []string `xml:"Message"`
}

// handleWebhook answers a Twilio WhatsApp webhook.  Twilio posts the message
// as form fields and expects TwiML back.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	from := strings.TrimSpace(r.FormValue("From"))
	if from == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}
	out := s.Engine.Handle(r.Context(), pkg.Inbound{From: from, Body: r.FormValue("Body")})

	body, err := xml.Marshal(twimlResponse{Messages: out.Replies})
	if err != nil {
		s.Logger.Error("encode twiml", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}

// handleMessage is the JSON equivalent of the webhook for clients that are
// not Twilio.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req pkg.Inbound
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.From) == "" {
		Error(w, http.StatusBadRequest, "from is required")
		return
	}
	out := s.Engine.Handle(r.Context(), req)
	if out.Replies == nil {
		out.Replies = []string{}
	}
	JSON(w, http.StatusOK, out)
}

// handleSummary returns the clinician summary of a stored record.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	summary, err := s.Summarizer.Summarize(r.Context(), phone)
	switch {
	case errors.Is(err, pkg.ErrNotFound):
		Error(w, http.StatusNotFound, "profile not found")
		return
	case errors.Is(err, llm.ErrNotConfigured):
		Error(w, http.StatusServiceUnavailable, "summary model not configured")
		return
	case err != nil:
		s.Logger.Error("summarize", "phone", phone, "error", err)
		Error(w, http.StatusBadGateway, "summary unavailable")
		return
	}
	JSON(w, http.StatusOK, map[string]string{
		"phone_number": phone,
		"summary":      summary,
	})
}

// handleIndex renders the instructions page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Templates.ExecuteTemplate(w, "index.html", s.Index); err != nil {
		s.Logger.Error("render index", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("WhatsApp Medical Assistant is running!"))
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
