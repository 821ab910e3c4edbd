package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func passing(_ context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

type status struct {
	Status string
	Checks map[string]string
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) status {
	t.Helper()
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var s status
	require.NoError(t, jx.DecodeBytes(w.Body.Bytes()).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "status":
			v, err := d.Str()
			s.Status = v
			return err
		case "checks":
			s.Checks = map[string]string{}
			return d.ObjBytes(func(d *jx.Decoder, name []byte) error {
				v, err := d.Str()
				s.Checks[string(name)] = v
				return err
			})
		default:
			return d.Skip()
		}
	}))
	return s
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func pollN(p *probe, n int) {
	for range n {
		p.poll(context.Background())
	}
}

func TestLiveEndpoint(t *testing.T) {
	t.Run("NoChecks", func(t *testing.T) {
		w := serve(New().LiveEndpoint)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", decodeStatus(t, w).Status)
	})
	t.Run("Passing", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("a", time.Second, passing)
		h.AddLivenessCheck("b", time.Second, passing)

		w := serve(h.LiveEndpoint)
		assert.Equal(t, http.StatusOK, w.Code)
		s := decodeStatus(t, w)
		assert.Equal(t, "ok", s.Status)
		assert.Empty(t, s.Checks)
	})
	t.Run("BelowThreshold", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("flaky", time.Second, failing("temporary"))
		pollN(h.probes[0], 2)

		assert.Equal(t, http.StatusOK, serve(h.LiveEndpoint).Code)
	})
	t.Run("Failing", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("storage", time.Second, failing("connection refused"))
		pollN(h.probes[0], 3)

		w := serve(h.LiveEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		s := decodeStatus(t, w)
		assert.Equal(t, "unhealthy", s.Status)
		assert.Equal(t, map[string]string{"storage": "connection refused"}, s.Checks)
	})
	t.Run("IgnoresReadiness", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("storage", time.Second, failing("down"))
		pollN(h.probes[0], 3)

		assert.Equal(t, http.StatusOK, serve(h.LiveEndpoint).Code)
	})
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("NotReady", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("storage", time.Second, passing)

		w := serve(h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, decodeStatus(t, w).Checks, notReady)
	})
	t.Run("Ready", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("storage", time.Second, passing)
		h.SetReady(true)

		w := serve(h.ReadyEndpoint)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", decodeStatus(t, w).Status)

		h.SetReady(false)
		assert.Equal(t, http.StatusServiceUnavailable, serve(h.ReadyEndpoint).Code)
	})
	t.Run("OneFailing", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("storage", time.Second, passing)
		h.AddReadinessCheck("kafka", time.Second, failing("no brokers"))
		h.SetReady(true)
		pollN(h.probes[1], 3)

		w := serve(h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		s := decodeStatus(t, w)
		assert.Contains(t, s.Checks, "kafka")
		assert.NotContains(t, s.Checks, "storage")
	})
}

func TestAdd_Defaults(t *testing.T) {
	h := New()
	h.Add(Check{Name: "x", Func: passing})

	p := h.probes[0]
	assert.Equal(t, time.Second, p.Timeout)
	assert.Equal(t, 3, p.FailureThreshold)
	assert.Equal(t, 1, p.SuccessThreshold)
	assert.True(t, p.healthy.Load())
}

func TestProbe_Thresholds(t *testing.T) {
	down := true
	h := New()
	h.Add(Check{
		Name:             "flaky",
		FailureThreshold: 2,
		SuccessThreshold: 2,
		Func: func(context.Context) error {
			if down {
				return errors.New("down")
			}
			return nil
		},
	})
	p := h.probes[0]

	pollN(p, 1)
	assert.True(t, p.healthy.Load())
	pollN(p, 1)
	assert.False(t, p.healthy.Load())

	msg, failed := p.failure()
	assert.True(t, failed)
	assert.Equal(t, "down", msg)

	down = false
	pollN(p, 1)
	assert.False(t, p.healthy.Load())
	pollN(p, 1)
	assert.True(t, p.healthy.Load())
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("storage", time.Second, passing)
	assert.False(t, h.IsReady())

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestStartStop(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	h := New()
	h.AddLivenessCheck("counted", time.Second, func(context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	h.Start(t.Context(), 5*time.Millisecond)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("live", time.Second, failing("err"))
	h.AddReadinessCheck("ready", time.Second, passing)
	h.SetReady(true)
	h.Start(t.Context(), time.Millisecond)
	defer h.Stop()

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				h.IsReady()
				serve(h.LiveEndpoint)
				serve(h.ReadyEndpoint)
			}
		})
	}
	wg.Wait()
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheckers(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(t.Context()))
	assert.ErrorContains(t, GoroutineCountCheck(0)(t.Context()), "exceeds threshold")

	assert.NoError(t, GCMaxPauseCheck(time.Hour)(t.Context()))

	assert.NoError(t, PingCheck(pinger{})(t.Context()))
	err := PingCheck(pinger{err: errors.New("refused")})(t.Context())
	assert.ErrorContains(t, err, "refused")
}
