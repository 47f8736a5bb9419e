package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"masterserver/internal/master/domain/models"
	"masterserver/pkg/logger"
)

type contextKey string

const currentUserKey contextKey = "currentUser"

func loggingMiddleware(logg logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rr := httptest.NewRecorder()

			defer func() {
				latency := time.Since(start).String()

				logg.Infof("METHOD %s URI %s %s	STATUS %d Latency %s Client IP %s User Agent %s",
					r.Method,
					r.Proto,
					r.URL.RequestURI(),
					rr.Code,
					latency,
					r.RemoteAddr,
					r.UserAgent(),
				)
			}()

			next.ServeHTTP(rr, r)

			for k, v := range rr.Header() {
				w.Header()[k] = v
			}

			w.WriteHeader(rr.Code)

			if rr.Code >= 400 && rr.Body.Len() != 0 {
				logg.Errorf("error: %s", rr.Body)
			}

			_, err := rr.Body.WriteTo(w)
			if err != nil {
				logg.Errorf("middleware write error: %s", err.Error())
			}
		})
	}
}

// authMiddleware resolves the bearer token to a stored user and puts it on
// the request context. Requests without a valid token never reach the
// wrapped handler.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			handleUnauthorized(w, fmt.Errorf("authorization header required")) //nolint:perfsprint

			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			handleUnauthorized(w, fmt.Errorf("authorization header format must be Bearer {token}")) //nolint:perfsprint

			return
		}

		user, err := s.authService.Authenticate(r.Context(), parts[1])
		if err != nil {
			handleUnauthorized(w, fmt.Errorf("authentication error: %w", err))

			return
		}

		ctx := context.WithValue(r.Context(), currentUserKey, user)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(currentUserKey).(models.User)

	return u, ok
}

func handleUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Add("WWW-Authenticate", "Bearer")
	handleError(w, err, http.StatusUnauthorized)
}
