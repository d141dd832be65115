package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vitrei/parley/core"
)

// sseWriter emits server-sent events and flushes after every frame so
// fragments reach the client as they are produced, also through buffering
// reverse proxies.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, core.NewUpstreamFault("response writer does not support streaming", nil)
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=UTF-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

// data writes one data frame. Multi-line text becomes multiple data lines of
// the same frame, as the SSE format requires.
func (s *sseWriter) data(text string) error {
	for _, line := range strings.Split(text, "\n") {
		if _, err := fmt.Fprintf(s.w, "data: %s\n", line); err != nil {
			return err
		}
	}
	return s.finishFrame()
}

// event writes a named frame with a JSON body.
func (s *sseWriter) event(name string, body any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n", name, encoded); err != nil {
		return err
	}
	return s.finishFrame()
}

// done writes the stream terminator.
func (s *sseWriter) done() error {
	return s.data("[DONE]")
}

func (s *sseWriter) finishFrame() error {
	if _, err := fmt.Fprint(s.w, "\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
