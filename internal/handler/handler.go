package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sciencegpt/internal/gamification"
	"sciencegpt/internal/handler/views"
	"sciencegpt/internal/llm"
	"sciencegpt/internal/model"
	"sciencegpt/internal/progress"
	"sciencegpt/internal/session"
	"sciencegpt/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	llm      *llm.Client
	sessions *session.Manager
	config   model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, l *llm.Client, sm *session.Manager, cfg model.ServerConfig) (*Handler, error) {
	return &Handler{store: s, llm: l, sessions: sm, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Handle("/static/*", http.FileServer(http.FS(views.StaticFS)))
	r.Group(func(r chi.Router) {
		r.Use(h.withSession)
		r.Get("/", h.handleIndex)
		r.Post("/ask", h.handleAsk)
		r.Post("/settings", h.handleSettings)
		r.Post("/challenge", h.handleChallenge)
		r.Post("/chat/clear", h.handleClearChat)
		r.Get("/progress", h.handleProgress)
		r.Get("/progress/export", h.handleExport)
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		http.Error(w, "session expired", http.StatusInternalServerError)
		return
	}

	sess.Lock()
	settings := sess.Settings
	messages := append([]model.ChatMessage(nil), sess.Messages...)
	events := append([]model.ProgressEvent(nil), sess.Events...)
	state := sess.Gamification
	challengeDone := sess.ChallengeDone && sess.ChallengeDay == dayKey(time.Now())
	sess.Unlock()

	grades, err := h.store.Grades()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	subjects, err := h.store.Subjects(settings.Grade)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	topics, err := h.store.Topics(settings.Grade, settings.Subject)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	languages, err := h.store.Languages()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	summary := progress.Summarize(events)
	data := views.IndexData{
		Settings:      settings,
		Grades:        grades,
		Subjects:      subjects,
		Topics:        append([]string{model.AllTopics}, topics...),
		Languages:     languages,
		Messages:      messages,
		Suggestions:   h.llm.Suggestions(r.Context(), settings),
		Fact:          h.llm.FactOfDay(r.Context(), settings.Grade, settings.Subject, settings.Topic),
		Challenge:     h.llm.Challenge(r.Context(), settings, time.Now()),
		ChallengeDone: challengeDone,
		Gamification:  state,
		NextBadges:    gamification.NextBadges(events, time.Now()),
		QuestionCount: summary.TotalQuestions,
		Error:         r.URL.Query().Get("error"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.IndexPage(data).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		http.Error(w, "session expired", http.StatusInternalServerError)
		return
	}

	sess.Lock()
	events := append([]model.ProgressEvent(nil), sess.Events...)
	state := sess.Gamification
	sess.Unlock()

	data := views.ProgressData{
		Summary:      progress.Summarize(events),
		Weekly:       progress.WeeklyActivity(events, time.Now()),
		Recent:       progress.Recent(events, 5),
		Gamification: state,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ProgressPage(data).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// progressExport is the shape of the downloadable progress file.
type progressExport struct {
	ExportedAt   time.Time               `json:"exported_at"`
	Settings     model.Settings          `json:"settings"`
	Gamification model.GamificationState `json:"gamification"`
	Summary      progress.Summary        `json:"summary"`
	Events       []model.ProgressEvent   `json:"events"`
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		http.Error(w, "session expired", http.StatusInternalServerError)
		return
	}

	sess.Lock()
	export := progressExport{
		ExportedAt:   time.Now(),
		Settings:     sess.Settings,
		Gamification: sess.Gamification,
		Summary:      progress.Summarize(sess.Events),
		Events:       append([]model.ProgressEvent(nil), sess.Events...),
	}
	sess.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="sciencegpt-progress.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		slog.Error("export encoding failed", "error", err)
	}
}
