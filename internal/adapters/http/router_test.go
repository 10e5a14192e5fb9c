package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/callsession/internal/app"
	"github.com/dkeye/callsession/internal/config"
	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callHandle string

func (c callHandle) CallID() string { return string(c) }

type clientHandle string

func (c clientHandle) ClientID() string { return string(c) }

type stubCommands struct {
	core.Commands
	mu      sync.Mutex
	inCall  bool
	micMute bool
	digits  []string
}

func (s *stubCommands) RegisterClient(context.Context) (domain.ClientHandle, error) {
	return clientHandle("alice@0-2-0"), nil
}

func (s *stubCommands) MakeCall(_ context.Context, kind domain.CallKind, target string) (domain.CallHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inCall {
		return nil, fmt.Errorf("%w: H1", core.ErrCallInProgress)
	}
	s.inCall = true
	return callHandle(fmt.Sprintf("%s-%s", kind, target)), nil
}

func (s *stubCommands) Hangup(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inCall {
		return core.ErrNoActiveCall
	}
	s.inCall = false
	return nil
}

func (s *stubCommands) SendDTMF(_ context.Context, digit string) error {
	if digit == "x" {
		return core.ErrInvalidDigit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digits = append(s.digits, digit)
	return nil
}

func (s *stubCommands) SetLocalMicMuted(_ context.Context, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.micMute = muted
	return nil
}

type stubSession struct {
	bus  *core.Bus
	cmds *stubCommands
	done chan struct{}
}

func (s *stubSession) Snapshot() domain.CallSession {
	cs := domain.NewCallSession("alice")
	s.cmds.mu.Lock()
	cs.LocalMicMuted = s.cmds.micMute
	s.cmds.mu.Unlock()
	return cs
}

func (s *stubSession) Subscribe(name domain.EventName, l core.Listener) core.Subscription {
	return s.bus.Subscribe(name, l)
}

func (s *stubSession) SubscribeAll(l core.Listener) core.Subscription { return s.bus.SubscribeAll(l) }

func (s *stubSession) Commands() core.Commands { return s.cmds }

func (s *stubSession) Done() <-chan struct{} { return s.done }

func setup(t *testing.T, bind bool) (*gin.Engine, *stubSession) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	bus := core.NewBus(8)
	t.Cleanup(bus.Close)
	sess := &stubSession{bus: bus, cmds: &stubCommands{}, done: make(chan struct{})}
	reg := app.NewRegistry()
	if bind {
		reg.Bind(sess)
	}
	return SetupRouter(context.Background(), &config.Config{Mode: "test"}, reg), sess
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_NoSession(t *testing.T) {
	r, _ := setup(t, false)
	w := do(r, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(r, http.MethodPost, "/api/call/hangup", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_Session(t *testing.T) {
	r, _ := setup(t, true)
	w := do(r, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view domain.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, domain.StateIdle, view.WebRTCState)
	assert.Equal(t, "alice", view.RegisteredAs)
}

func TestRouter_Register(t *testing.T) {
	r, _ := setup(t, true)
	w := do(r, http.MethodPost, "/api/register", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"client_id":"alice@0-2-0"}`, w.Body.String())
}

func TestRouter_CallLifecycle(t *testing.T) {
	r, _ := setup(t, true)

	w := do(r, http.MethodPost, "/api/call", `{"kind":"service","target":"123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"call_id":"service-123"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/call", `{"kind":"client","target":"bob"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/call/hangup", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodPost, "/api/call/hangup", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_BadRequests(t *testing.T) {
	r, _ := setup(t, true)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/call", `{"kind":"fax","target":"1"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/call", `{"kind":"peer"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/call/dtmf", `{"digit":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/mute/mic", `{}`).Code)
}

func TestRouter_DTMFAndMute(t *testing.T) {
	r, sess := setup(t, true)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/api/call/dtmf", `{"digit":"#"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPut, "/api/mute/mic", `{"muted":true}`).Code)

	sess.cmds.mu.Lock()
	assert.Equal(t, []string{"#"}, sess.cmds.digits)
	assert.True(t, sess.cmds.micMute)
	sess.cmds.mu.Unlock()

	w := do(r, http.MethodGet, "/api/session", "")
	assert.Contains(t, w.Body.String(), `"local_mic_muted":true`)
}

func TestRouter_EventsStream(t *testing.T) {
	r, sess := setup(t, true)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events?name=ringing", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event:session", lines.Text())

	require.Eventually(t, func() bool { return sess.bus.Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	sess.bus.Publish(domain.Event{Name: domain.EventGotMedia})
	sess.bus.Publish(domain.Event{Name: domain.EventRinging})

	for lines.Scan() {
		if lines.Text() == "event:ringing" {
			require.True(t, lines.Scan())
			assert.Equal(t, `data:{"type":"ringing"}`, lines.Text())
			return
		}
		assert.NotEqual(t, "event:gotMedia", lines.Text())
	}
	t.Fatal("ringing event not streamed")
}

func TestRouter_EventsUnknownName(t *testing.T) {
	r, _ := setup(t, true)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/events?name=hold", "").Code)
}
