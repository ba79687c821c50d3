package http_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
	context_ "github.com/mkrupp/homecase-gameapp/internal/infra/context"
	"github.com/mkrupp/homecase-gameapp/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-gameapp/internal/infra/transport/http"
)

type stubUsers struct {
	user *domain.User
}

func (s stubUsers) CurrentUser(context.Context) (*domain.User, bool) {
	return s.user, s.user != nil
}

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		user       *domain.User
		wantStatus int
		wantUser   string
	}{
		{name: "no session", wantStatus: http.StatusUnauthorized},
		{
			name:       "logged in",
			user:       &domain.User{ID: 5, Username: "dave"},
			wantStatus: http.StatusTeapot,
			wantUser:   "dave",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotUser string

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if u, ok := context_.SessionUserFromContext(r.Context()); ok {
					gotUser = u.Username
				}

				w.WriteHeader(http.StatusTeapot)
			})

			rec := httptest.NewRecorder()
			handler := http_.SessionMiddleware(next, stubUsers{user: tt.user}, logging.NewNopLogger())
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)
		})
	}
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	var traceID string

	handler := http_.TracingMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traceID, _ = context_.TraceIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, traceID, 36)
	assert.Equal(t, traceID, rec.Header().Get(http_.TraceIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(http_.TraceIDHeader, "given-id")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "given-id", traceID)
}

func TestRescueingMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.RescueingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logging.NewNopLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}), logging.NewNopLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	sock, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- http_.Serve(ctx, sock, http.NotFoundHandler(), http_.HTTPTransportConfig{
			ShutdownTimeout: time.Second,
		}, logging.NewNopLogger())
	}()

	resp, err := http.Get("http://" + sock.Addr().String() + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_InFlightRequestSurvivesCancel(t *testing.T) {
	t.Parallel()

	sock, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		started = make(chan struct{})
		release = make(chan struct{})
	)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release

		if r.Context().Err() != nil {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- http_.Serve(ctx, sock, handler, http_.HTTPTransportConfig{
			ShutdownTimeout: 5 * time.Second,
		}, logging.NewNopLogger())
	}()

	status := make(chan int, 1)

	go func() {
		resp, err := http.Get("http://" + sock.Addr().String() + "/")
		if err != nil {
			status <- 0

			return
		}
		_ = resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-started
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	assert.Equal(t, http.StatusOK, <-status)
	require.NoError(t, <-done)
}
