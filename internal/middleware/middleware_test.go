package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/mmynk/bandpoints/internal/auth"
	"github.com/mmynk/bandpoints/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type empty struct{}

func TestAuthInterceptorUnary(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	account := models.NewAccount("amy@band.org", "Amy", "hash")
	token, err := jwtManager.Generate(account)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		optional bool
		wantCode connect.Code
		wantUser string
	}{
		{name: "valid token", header: "Bearer " + token, wantUser: account.ID},
		{name: "missing header", header: "", wantCode: connect.CodeUnauthenticated},
		{name: "wrong scheme", header: "Basic " + token, wantCode: connect.CodeUnauthenticated},
		{name: "bad token", header: "Bearer nope", wantCode: connect.CodeUnauthenticated},
		{name: "optional without token", header: "", optional: true},
		{name: "optional with bad token", header: "Bearer nope", optional: true},
		{name: "optional with token", header: "Bearer " + token, optional: true, wantUser: account.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interceptor := RequireAuth(jwtManager)
			if tt.optional {
				interceptor = OptionalAuth(jwtManager)
			}

			var gotUser string
			called := false
			next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				called = true
				gotUser = GetUserID(ctx)
				return connect.NewResponse(&empty{}), nil
			}

			req := connect.NewRequest(&empty{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			_, err := interceptor.WrapUnary(next)(context.Background(), req)
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, connect.CodeOf(err))
				assert.False(t, called)
				return
			}
			require.NoError(t, err)
			assert.True(t, called)
			assert.Equal(t, tt.wantUser, gotUser)
		})
	}
}

func TestWithUser(t *testing.T) {
	ctx := WithUser(context.Background(), "u1", "amy@band.org")
	assert.Equal(t, "u1", GetUserID(ctx))
	assert.Equal(t, "amy@band.org", GetEmail(ctx))
	assert.Empty(t, GetUserID(context.Background()))
}

func TestCORS(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := HTTPLogging(CORS(inner))

	t.Run("preflight short-circuits", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("other methods reach the handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
