package middleware

import (
	"log/slog"
	"net/http"

	id "filetrack/pkg/domain"
	"filetrack/pkg/requestcontext"
)

// HeaderAdministrationID carries the acting administration. Authentication happens
// upstream; the gateway sets this header for authenticated staff.
const HeaderAdministrationID = "X-Administration-ID"

// RequireAdministration rejects requests without a valid acting administration and
// stores it in the context.
func RequireAdministration(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			adminID, err := id.ParseAdministrationID(r.Header.Get(HeaderAdministrationID))
			if err != nil {
				logger.WarnContext(ctx, "missing or invalid acting administration",
					"request_id", GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"acting administration required"}`))
				return
			}
			ctx = requestcontext.WithAdministrationID(ctx, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdministrationID returns the acting administration set by RequireAdministration.
func GetAdministrationID(r *http.Request) id.AdministrationID {
	return requestcontext.AdministrationID(r.Context())
}
