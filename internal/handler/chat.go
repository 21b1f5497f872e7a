package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sciencegpt/internal/gamification"
	"sciencegpt/internal/llm"
	"sciencegpt/internal/model"
	"sciencegpt/internal/progress"
	"sciencegpt/internal/session"
)

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		http.Error(w, "session expired", http.StatusInternalServerError)
		return
	}

	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		http.Error(w, "question cannot be empty", http.StatusBadRequest)
		return
	}

	sess.Lock()
	settings := sess.Settings
	sess.Unlock()

	// The LLM call runs outside the session lock so a slow answer does
	// not block other requests from the same browser.
	answer, err := h.llm.Answer(r.Context(), settings, question)
	if err != nil {
		slog.Error("LLM answer failed", "error", err, "subject", settings.Subject)
		answer = llm.Unavailable(settings.Subject)
	}

	now := time.Now()
	sess.Lock()
	sess.AppendMessage(model.RoleStudent, question, now)
	sess.AppendMessage(model.RoleTutor, answer, now)
	h.record(sess, model.ActionQuestionAsked, settings, question, now)
	if firstTopicVisit(sess.Events, settings) {
		h.record(sess, model.ActionTopicExploration, settings, "", now)
	}
	sess.Gamification = gamification.Evaluate(sess.Events, now)
	sess.Unlock()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		http.Error(w, "session expired", http.StatusInternalServerError)
		return
	}

	grade, err := strconv.Atoi(r.FormValue("grade"))
	if err != nil {
		http.Error(w, "invalid grade", http.StatusBadRequest)
		return
	}
	subject := r.FormValue("subject")
	language := r.FormValue("language")
	topic := r.FormValue("topic")
	if topic == "" {
		topic = model.AllTopics
	}

	ok, err := h.store.HasSubject(grade, subject)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "unknown grade or subject", http.StatusBadRequest)
		return
	}
	ok, err = h.store.HasTopic(grade, subject, topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "unknown topic", http.StatusBadRequest)
		return
	}
	ok, err = h.store.HasLanguage(language)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "unknown language", http.StatusBadRequest)
		return
	}

	sess.Lock()
	changed := sess.Settings != (model.Settings{Grade: grade, Subject: subject, Language: language, Topic: topic})
	sess.Settings = model.Settings{Grade: grade, Subject: subject, Language: language, Topic: topic}
	sess.Unlock()

	if changed {
		h.llm.ClearContentCaches()
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleChallenge(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		http.Error(w, "session expired", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	today := dayKey(now)

	sess.Lock()
	if !sess.ChallengeDone || sess.ChallengeDay != today {
		sess.ChallengeDone = true
		sess.ChallengeDay = today
		h.record(sess, model.ActionDailyChallenge, sess.Settings, "", now)
		sess.Gamification = gamification.Evaluate(sess.Events, now)
	}
	sess.Unlock()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleClearChat(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		http.Error(w, "session expired", http.StatusInternalServerError)
		return
	}

	sess.Lock()
	sess.ClearChat()
	sess.Unlock()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// record appends a validated progress event. Malformed events are
// logged and dropped. Callers must hold the session lock.
func (h *Handler) record(sess *session.Session, action model.Action, s model.Settings, question string, at time.Time) {
	ev, err := progress.NewEvent(action, s.Subject, s.Topic, s.Grade, question, at)
	if err != nil {
		slog.Warn("dropping malformed progress event", "action", action, "error", err)
		return
	}
	sess.AppendEvent(ev)
}

// firstTopicVisit reports whether no prior question touched the current
// subject and topic. The catch-all topic never counts as exploration.
func firstTopicVisit(events []model.ProgressEvent, s model.Settings) bool {
	if s.Topic == "" || s.Topic == model.AllTopics {
		return false
	}
	for _, ev := range events {
		if ev.Action == model.ActionTopicExploration && ev.Subject == s.Subject && ev.Topic == s.Topic {
			return false
		}
	}
	return true
}
