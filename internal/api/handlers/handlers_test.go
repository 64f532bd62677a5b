package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/stagehand/internal/dispatch"
	"github.com/Conceptual-Machines/stagehand/internal/host"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
)

type fakeSubmitter struct {
	reply dispatch.Reply
	err   error
	got   dispatch.Request
}

func (f *fakeSubmitter) Submit(_ context.Context, req dispatch.Request) (dispatch.Reply, error) {
	f.got = req
	return f.reply, f.err
}

type fakeProber struct{ err error }

func (f fakeProber) Health(context.Context) error { return f.err }

func serve(t *testing.T, method, path, body string, register func(r *gin.Engine)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router)

	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestArgString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"Lead Synth", "Lead Synth"},
		{float64(3), "3"},
		{0.25, "0.25"},
		{true, "true"},
		{nil, ""},
		{[]any{1}, "[1]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, argString(tt.in))
	}
}

func TestHTTPStatus(t *testing.T) {
	reply := func(status string, result map[string]any) dispatch.Reply {
		return dispatch.Reply{Status: status, Result: result}
	}

	assert.Equal(t, http.StatusOK, httpStatus(reply("ok", nil)))
	assert.Equal(t, http.StatusBadRequest, httpStatus(reply("error", map[string]any{"error": "usage"})))
	assert.Equal(t, http.StatusNotFound, httpStatus(reply("error", map[string]any{"error_kind": "INVALID_PATH"})))
	assert.Equal(t, http.StatusForbidden, httpStatus(reply("error", map[string]any{"error_kind": "PERMISSION"})))
	assert.Equal(t, http.StatusConflict, httpStatus(reply("error", map[string]any{"error_kind": "STATE"})))
	assert.Equal(t, http.StatusServiceUnavailable, httpStatus(reply("error", map[string]any{"error_kind": "TRANSIENT"})))
	assert.Equal(t, http.StatusServiceUnavailable, httpStatus(reply("error", map[string]any{"error_kind": "CONNECTION"})))
	assert.Equal(t, http.StatusInternalServerError, httpStatus(reply("error", map[string]any{"error_kind": "UNKNOWN"})))
}

func TestExecute_ForwardsArgs(t *testing.T) {
	sub := &fakeSubmitter{reply: dispatch.Reply{ID: "1", Command: "set_pan", Status: "ok", Result: map[string]any{"status": "ok"}}}
	h := NewCommandHandler(sub)

	w := serve(t, http.MethodPost, "/commands", `{"command":"set_pan","args":[2,-0.5]}`, func(r *gin.Engine) {
		r.POST("/commands", h.Execute)
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "set_pan", sub.got.Command)
	assert.Equal(t, []string{"2", "-0.5"}, sub.got.Args)
}

func TestExecute_SubmitFailures(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{dispatch.ErrStopped, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		h := NewCommandHandler(&fakeSubmitter{err: tt.err})
		w := serve(t, http.MethodPost, "/commands", `{"line":"status"}`, func(r *gin.Engine) {
			r.POST("/commands", h.Execute)
		})
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
	}
}

func TestExecute_BadJSON(t *testing.T) {
	h := NewCommandHandler(&fakeSubmitter{})
	w := serve(t, http.MethodPost, "/commands", `{"args":`, func(r *gin.Engine) {
		r.POST("/commands", h.Execute)
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck_GenerationDown(t *testing.T) {
	s := host.NewDemoSession()
	access := remote.NewAccess(s, remote.NewStateCache(time.Second), remote.RetryPolicy{Attempts: 1})
	down := &remote.Error{Kind: remote.KindConnection, Op: "generation", Message: "unreachable"}
	h := NewHealthHandler(access, fakeProber{err: down}, true, "openai")

	w := serve(t, http.MethodGet, "/health", "", func(r *gin.Engine) {
		r.GET("/health", h.HealthCheck)
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, "unreachable", resp["generation"].(map[string]any)["status"])
	assert.Equal(t, "enabled", resp["catalog"].(map[string]any)["status"])
	assert.Equal(t, "openai", resp["nlp"].(map[string]any)["provider"])
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5.00s", formatUptime(5*time.Second))
	assert.Equal(t, "2m3.50s", formatUptime(2*time.Minute+3500*time.Millisecond))
	assert.Equal(t, "1h0m1.00s", formatUptime(time.Hour+time.Second))
}
