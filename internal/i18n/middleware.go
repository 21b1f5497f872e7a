package i18n

import "net/http"

// Middleware injects a localizer for the Init-configured language into
// every request context. UI chrome language is a server-wide setting;
// per-student language only affects LLM answers, not the chrome.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		loc := NewLocalizer(defaultLang)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
