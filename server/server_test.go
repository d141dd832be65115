package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/metrics"
	"github.com/vitrei/parley/model"
	"github.com/vitrei/parley/orchestrator"
	"github.com/vitrei/parley/prompt"
	"github.com/vitrei/parley/session"
)

func testProvider() prompt.Provider {
	return prompt.NewStaticProvider(map[string]prompt.Set{
		"german": {
			System:    []string{"Du bist ein Testassistent."},
			Proactive: "Begrüße die Person herzlich.",
			Guidance: map[string]string{
				"general_guidance": "Stelle genau eine Rückfrage.",
			},
		},
	})
}

type fixture struct {
	ts    *httptest.Server
	model *model.MockModel
	store core.StateStore
}

func newFixture(t *testing.T, optFns ...func(o *Options)) *fixture {
	t.Helper()

	m := model.NewMockModel("mock", "test")
	store := session.NewInMemoryStore()
	orch := orchestrator.New(m, func(o *orchestrator.Options) {
		o.Store = store
		o.Composer = prompt.NewComposer(testProvider(), "german")
	})

	srv := New(orch, optFns...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, model: m, store: store}
}

func (f *fixture) post(t *testing.T, path, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(f.ts.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// sseEvent is one parsed frame: name is empty for plain data frames.
type sseEvent struct {
	name string
	data string
}

func readSSE(t *testing.T, resp *http.Response) []sseEvent {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var events []sseEvent
	for _, frame := range strings.Split(string(raw), "\n\n") {
		if frame == "" {
			continue
		}
		var ev sseEvent
		var dataLines []string
		for _, line := range strings.Split(frame, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
			}
		}
		ev.data = strings.Join(dataLines, "\n")
		events = append(events, ev)
	}
	return events
}

// streamedText concatenates the plain data frames, excluding the terminator.
func streamedText(events []sseEvent) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.name == "" && ev.data != "[DONE]" {
			b.WriteString(ev.data)
		}
	}
	return b.String()
}

func findEvent(events []sseEvent, name string) (sseEvent, bool) {
	for _, ev := range events {
		if ev.name == name {
			return ev, true
		}
	}
	return sseEvent{}, false
}

func TestInfo(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", resp.Header.Get("Content-Type"))

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "LLM chatbot backend running", body["api"])
	assert.Equal(t, "1.0.0", body["version"])
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestInstruct_ReturnsAnswer(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/instruct/", `{"userId": "user-1", "content": "Hallo"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	answer := decodeBody[core.LLMAnswer](t, resp)
	assert.Equal(t, "Mock response to: Hallo", answer.Content)

	state, err := f.store.GetOrCreate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.TurnCounter)
}

func TestInstruct_ValidatesBody(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing content", `{"userId": "user-1"}`, "content"},
		{"missing userId", `{"content": "Hallo"}`, "userId"},
		{"blank content", `{"userId": "user-1", "content": "  "}`, "content"},
		{"malformed JSON", `{"userId": `, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.post(t, "/instruct/", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody[map[string]string](t, resp)
			assert.Contains(t, body["error"], tt.want)
		})
	}

	assert.Zero(t, f.model.Calls())
}

func TestInstruct_RejectsGet(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/instruct/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestInstruct_UpstreamFailureMapsToBadGateway(t *testing.T) {
	f := newFixture(t)
	f.model.FailWith(errors.New("connection refused"))

	resp := f.post(t, "/instruct/", `{"userId": "user-1", "content": "Hallo"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "upstream", body["kind"])
	assert.NotContains(t, body["error"], "connection refused")
}

func TestInstruct_StreamEmitsSSE(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/instruct/", `{"userId": "user-1", "content": "Hallo", "stream": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream; charset=UTF-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))

	events := readSSE(t, resp)
	require.NotEmpty(t, events)
	assert.Equal(t, "[DONE]", events[len(events)-1].data)

	assert.Equal(t, "Mock response to: Hallo", streamedText(events))

	payload, ok := findEvent(events, "payload")
	require.True(t, ok)
	var answer core.LLMAnswer
	require.NoError(t, json.Unmarshal([]byte(payload.data), &answer))
	assert.Equal(t, "Mock response to: Hallo", answer.Content)
}

func TestInstruct_StreamFailureEmitsErrorEvent(t *testing.T) {
	f := newFixture(t)
	f.model.FailWith(errors.New("boom"))

	resp := f.post(t, "/instruct/", `{"userId": "user-1", "content": "Hallo", "stream": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := readSSE(t, resp)
	errEvent, ok := findEvent(events, "error")
	require.True(t, ok)
	assert.Contains(t, errEvent.data, `"kind":"upstream"`)
	assert.Equal(t, "[DONE]", events[len(events)-1].data)
}

func TestInit_ResetsSessionAndOpensConversation(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/instruct/", `{"userId": "user-1", "content": "Hallo"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, "/init/", `{"userId": "user-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	answer := decodeBody[core.LLMAnswer](t, resp)
	assert.Equal(t, "Mock response to: Begrüße die Person herzlich.", answer.Content)

	state, err := f.store.GetOrCreate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, state.TurnCounter)
	require.Len(t, state.History, 1)
	assert.Equal(t, answer.Content, state.History[0].Answer.Content)
}

func TestInit_RequiresUserID(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/init/", `{"stream": false}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	assert.Contains(t, body["error"], "userId")
}

func TestInit_StreamEmitsSSE(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/init/", `{"userId": "user-1", "stream": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := readSSE(t, resp)
	assert.Equal(t, "Mock response to: Begrüße die Person herzlich.", streamedText(events))
	assert.Equal(t, "[DONE]", events[len(events)-1].data)
}

func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.NewCollector(func(o *metrics.Options) {
		o.Namespace = "servertest"
		o.Registerer = prometheus.NewRegistry()
	})

	f := newFixture(t, func(o *Options) {
		o.Metrics = collector.Handler()
	})

	resp, err := http.Get(f.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "servertest_turns_in_flight")
}

func TestMetricsEndpointHiddenWithoutHandler(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
