package handler

import (
	"log/slog"
	"net/http"
	"time"

	"sciencegpt/internal/gamification"
	"sciencegpt/internal/model"
	"sciencegpt/internal/progress"
	"sciencegpt/internal/session"
)

const sessionCookieName = "session"

// withSession resolves the session cookie, creating a new session when
// the cookie is missing or stale. The first request of each calendar
// day earns the daily login bonus.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			sess = h.sessions.Get(cookie.Value)
		}
		if sess == nil {
			var err error
			sess, err = h.sessions.Create()
			if err != nil {
				slog.Error("failed to create session", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   h.config.SecureCookies,
			})
		}

		h.recordDailyLogin(sess, time.Now())

		ctx := model.ContextWithSessionID(r.Context(), sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) recordDailyLogin(sess *session.Session, now time.Time) {
	today := dayKey(now)

	sess.Lock()
	defer sess.Unlock()
	if sess.LastLoginDay == today {
		return
	}
	sess.LastLoginDay = today

	ev, err := progress.NewEvent(model.ActionDailyLogin, sess.Settings.Subject, sess.Settings.Topic, sess.Settings.Grade, "", now)
	if err != nil {
		slog.Warn("dropping malformed progress event", "action", model.ActionDailyLogin, "error", err)
		return
	}
	sess.AppendEvent(ev)
	sess.Gamification = gamification.Evaluate(sess.Events, now)
}

// session returns the request's session, or nil if it vanished between
// the middleware and the handler.
func (h *Handler) session(r *http.Request) *session.Session {
	id := model.SessionIDFromContext(r.Context())
	if id == "" {
		return nil
	}
	return h.sessions.Get(id)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
