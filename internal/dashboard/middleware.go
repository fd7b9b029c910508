package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zeluilo/hms-sub001/pkg/logger"
	"github.com/zeluilo/hms-sub001/pkg/session"
	"github.com/zeluilo/hms-sub001/pkg/types"
)

type contextKey string

const contextKeySession contextKey = "session"

// responseRecorder captures the status code for logging and metrics.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Service) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), logger.ContextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		s.logger.HTTPRequest(r.Context(), r.Method, r.URL.Path, r.UserAgent(), r.RemoteAddr,
			recorder.statusCode, duration.Milliseconds(), nil)
		s.metrics.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(recorder.statusCode), duration)
	})
}

// authMiddleware validates the Bearer token and attaches the session
// to the request context. Health, metrics and login stay open.
func (s *Service) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.writeErrorResponse(w, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "missing authorization header"))
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			s.writeErrorResponse(w, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "invalid authorization header format"))
			return
		}

		sess, err := s.sessions.Validate(token)
		if err != nil {
			s.writeErrorResponse(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeySession, sess)
		ctx = context.WithValue(ctx, logger.ContextKeyUserID, sess.User.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) isPublicPath(path string) bool {
	switch path {
	case s.config.Monitoring.HealthPath, s.config.Monitoring.MetricsPath, "/api/v1/auth/login":
		return true
	}
	return false
}

func sessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(contextKeySession).(*session.Session)
	return sess, ok
}
