package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vitrei/parley/core"
)

type instructRequest struct {
	UserID  string `json:"userId"`
	Content string `json:"content"`
	Stream  bool   `json:"stream"`
}

type initRequest struct {
	UserID string `json:"userId"`
	Stream bool   `json:"stream"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"api":     "LLM chatbot backend running",
		"version": s.version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInstruct(w http.ResponseWriter, r *http.Request) {
	var req instructRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFieldError(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeFieldError(w, `Missing "content" field in JSON request`)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeFieldError(w, `Missing "userId" field in JSON request`)
		return
	}

	if req.Stream {
		deltas, errs := s.orch.HandleStream(r.Context(), req.UserID, req.Content)
		s.streamTurn(w, deltas, errs)
		return
	}

	answer, err := s.orch.Handle(r.Context(), req.UserID, req.Content)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFieldError(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeFieldError(w, `Missing "userId" field in JSON request`)
		return
	}

	if err := s.orch.Reset(r.Context(), req.UserID); err != nil {
		s.writeFault(w, err)
		return
	}

	if req.Stream {
		deltas, errs := s.orch.HandleProactiveStream(r.Context(), req.UserID)
		s.streamTurn(w, deltas, errs)
		return
	}

	answer, err := s.orch.HandleProactive(r.Context(), req.UserID)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// streamTurn forwards a delta stream as server-sent events: data frames for
// text fragments, one payload event carrying the recorded answer, an error
// event if the turn fails, and a [DONE] terminator either way.
func (s *Server) streamTurn(w http.ResponseWriter, deltas <-chan core.Delta, errs <-chan error) {
	sse, err := newSSEWriter(w)
	if err != nil {
		s.writeFault(w, err)
		return
	}

	for delta := range deltas {
		var writeErr error
		switch d := delta.(type) {
		case core.TextDelta:
			writeErr = sse.data(d.Text)
		case core.AnswerDelta:
			writeErr = sse.event("payload", d.Answer)
		}
		if writeErr != nil {
			// Client is gone; drain so the turn goroutine can finish.
			for range deltas {
			}
			<-errs
			return
		}
	}

	if err := <-errs; err != nil {
		s.logger.Error("turn failed", "kind", string(core.KindOf(err)), "error", err.Error())
		_ = sse.event("error", faultEnvelope(err))
	}
	_ = sse.done()
}

// faultEnvelope renders the caller-visible error body. Only the structured
// fault message crosses the wire; wrapped causes stay in the logs.
func faultEnvelope(err error) map[string]string {
	msg := "internal error"
	var f *core.Fault
	if errors.As(err, &f) {
		msg = f.Message
	}
	return map[string]string{
		"error": msg,
		"kind":  string(core.KindOf(err)),
	}
}

func (s *Server) writeFault(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "kind", string(core.KindOf(err)), "error", err.Error())

	status := http.StatusInternalServerError
	if core.KindOf(err) == core.FaultUpstream {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, faultEnvelope(err))
}

func writeFieldError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
