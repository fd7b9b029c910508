package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeluilo/hms-sub001/pkg/types"
)

func TestRequestIDMiddleware_PropagatesToLogEntries(t *testing.T) {
	svc, _ := newTestService(&stubBilling{}, &stubAuth{}, &stubSubmitter{})

	handler := svc.requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := svc.logger.WithContext(r.Context())
		assert.Equal(t, "req-123", entry.Data["request_id"])
	}))

	req := httptest.NewRequest("GET", "/api/v1/views/bookings", nil)
	req.Header.Set("X-Request-ID", "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRequestIDMiddleware_GeneratesIDWhenAbsent(t *testing.T) {
	svc, _ := newTestService(&stubBilling{}, &stubAuth{}, &stubSubmitter{})

	handler := svc.requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := svc.logger.WithContext(r.Context())
		assert.NotEmpty(t, entry.Data["request_id"])
	}))

	req := httptest.NewRequest("GET", "/api/v1/views/bookings", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuthMiddleware_UserIDReachesLogEntries(t *testing.T) {
	svc, _ := newTestService(&stubBilling{}, &stubAuth{}, &stubSubmitter{})

	sess, err := svc.sessions.Issue(types.User{ID: "u-7", Username: "grace", Role: types.RoleAccountant})
	require.NoError(t, err)

	handler := svc.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := svc.logger.WithContext(r.Context())
		assert.Equal(t, "u-7", entry.Data["user_id"])

		got, ok := sessionFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "grace", got.User.Username)
	}))

	req := httptest.NewRequest("GET", "/api/v1/views/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}
