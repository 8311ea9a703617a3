package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing() CheckFunc { return func(context.Context) error { return nil } }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func runN(c *check, n int) {
	for range n {
		c.run(context.Background())
	}
}

func serve(fn http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestLiveEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		runs     int
		fn       CheckFunc
		wantCode int
		wantBody string
	}{
		{"fresh checks are healthy", 0, failing("boom"), http.StatusOK, `{"status":"ok"}`},
		{"below failure threshold", 2, failing("boom"), http.StatusOK, `{"status":"ok"}`},
		{
			"at failure threshold", 3, failing("connection refused"),
			http.StatusServiceUnavailable, `{"status":"unhealthy","checks":{"db":"connection refused"}}`,
		},
		{"passing", 5, passing(), http.StatusOK, `{"status":"ok"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			h.AddLivenessCheck("db", time.Second, tt.fn)
			runN(h.liveness[0], tt.runs)

			w := serve(h.LiveEndpoint)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestCheck_Recovers(t *testing.T) {
	fail := true
	c := newCheck("flaky", time.Second, func(context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})
	runN(c, 3)
	assert.Equal(t, "down", c.failure())

	fail = false
	runN(c, 1)
	assert.Empty(t, c.failure())
}

func TestCheck_Timeout(t *testing.T) {
	c := newCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	runN(c, 3)
	assert.Contains(t, c.failure(), "deadline exceeded")
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, failing("no route to host"))

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"_readiness":"service is not ready"}}`, w.Body.String())
	assert.False(t, h.IsReady())

	h.SetReady(true)
	assert.True(t, h.IsReady())
	assert.Equal(t, http.StatusOK, serve(h.ReadyEndpoint).Code)

	runN(h.readiness[0], 3)
	assert.False(t, h.IsReady())
	w = serve(h.ReadyEndpoint)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"postgres":"no route to host"}}`, w.Body.String())
}

func TestStartStop(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, failing("down"))
	h.SetReady(true)

	h.Start(context.Background(), 5*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, GoroutineCountCheck(1_000_000)(ctx))
	assert.Error(t, GoroutineCountCheck(0)(ctx))

	assert.NoError(t, PingCheck(pingerFunc(func(context.Context) error { return nil }))(ctx))
	err := PingCheck(pingerFunc(func(context.Context) error { return errors.New("refused") }))(ctx)
	assert.EqualError(t, err, "ping: refused")

	pending := 3
	backlog := BacklogCheck(func() int { return pending }, 5)
	assert.NoError(t, backlog(ctx))
	pending = 6
	assert.EqualError(t, backlog(ctx), "6 items queued, limit 5")
}
