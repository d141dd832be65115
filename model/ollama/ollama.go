// Package ollama provides a model wrapper for self-hosted Ollama servers.
// It speaks the /api/chat endpoint directly and supports spreading calls
// across several hosts serving the same model.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"

	"github.com/vitrei/parley/model"
)

// DefaultHost is used when no hosts are configured.
const DefaultHost = "http://127.0.0.1:11434"

// Options configures the Ollama model adapter.
type Options struct {
	// Hosts lists the base URLs of the Ollama servers. One host is picked
	// at random per call; all hosts must serve the same model.
	Hosts []string
	// Temperature passed through to the model options.
	Temperature float64
	// KeepAlive controls how long the server keeps the model loaded.
	// -1 keeps it loaded indefinitely.
	KeepAlive int
	// HTTPClient optionally overrides the default client. Note that a
	// client timeout also cuts off long streams; prefer per-call contexts.
	HTTPClient *http.Client
}

// Model wraps one or more Ollama servers behind the generic model.Model interface.
type Model struct {
	name   string
	opts   Options
	hosts  []string
	client *http.Client
}

// NewModel creates an Ollama model adapter for the named model.
func NewModel(name string, optFns ...func(o *Options)) *Model {
	opts := Options{
		Temperature: 0.7,
		KeepAlive:   -1,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	hosts := make([]string, 0, len(opts.Hosts))
	for _, h := range opts.Hosts {
		if h = strings.TrimRight(strings.TrimSpace(h), "/"); h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		hosts = []string{DefaultHost}
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Model{name: name, opts: opts, hosts: hosts, client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string         `json:"model"`
	Messages  []chatMessage  `json:"messages"`
	Stream    bool           `json:"stream"`
	KeepAlive int            `json:"keep_alive,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		body, err := json.Marshal(chatRequest{
			Model:     m.name,
			Messages:  buildMessages(req),
			Stream:    req.Stream,
			KeepAlive: m.opts.KeepAlive,
			Options:   map[string]any{"temperature": m.opts.Temperature},
		})
		if err != nil {
			errCh <- fmt.Errorf("marshal request: %w", err)
			return
		}

		host := m.pickHost()
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, host+"/api/chat", bytes.NewReader(body))
		if err != nil {
			errCh <- fmt.Errorf("build request: %w", err)
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		res, err := m.client.Do(httpReq)
		if err != nil {
			errCh <- fmt.Errorf("ollama %s: %w", host, err)
			return
		}
		defer res.Body.Close()

		if res.StatusCode >= 300 {
			b, _ := io.ReadAll(res.Body)
			errCh <- fmt.Errorf("ollama %s: status %d: %s", host, res.StatusCode, strings.TrimSpace(string(b)))
			return
		}

		if req.Stream {
			m.consumeStream(ctx, res.Body, out, errCh)
			return
		}

		var resp chatResponse
		if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
			errCh <- fmt.Errorf("decode response: %w", err)
			return
		}

		out <- model.Response{
			Partial:      false,
			Text:         resp.Message.Content,
			FinishReason: doneReason(resp),
			Usage:        usage(resp),
		}
	}()

	return out, errCh
}

// consumeStream decodes the NDJSON chunk stream, forwarding each fragment and
// emitting the accumulated final response when the server reports done.
func (m *Model) consumeStream(ctx context.Context, body io.Reader, out chan<- model.Response, errCh chan<- error) {
	dec := json.NewDecoder(body)
	var textBuilder strings.Builder
	var last chatResponse

	for {
		var chunk chatResponse
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			errCh <- fmt.Errorf("decode stream: %w", err)
			return
		}

		if chunk.Message.Content != "" {
			textBuilder.WriteString(chunk.Message.Content)
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- model.Response{Partial: true, Text: chunk.Message.Content}:
			}
		}

		if chunk.Done {
			last = chunk
			break
		}
	}

	out <- model.Response{
		Partial:      false,
		Text:         textBuilder.String(),
		FinishReason: doneReason(last),
		Usage:        usage(last),
	}
}

// buildMessages converts the conversation into Ollama chat messages.
func buildMessages(req model.Request) []chatMessage {
	messages := make([]chatMessage, 0, 2*len(req.History)+2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, x := range req.History {
		messages = append(messages, chatMessage{Role: "user", Content: x.Instruction})
		messages = append(messages, chatMessage{Role: "assistant", Content: x.Answer.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Instruction})
	return messages
}

func (m *Model) pickHost() string {
	if len(m.hosts) == 1 {
		return m.hosts[0]
	}
	return m.hosts[rand.Intn(len(m.hosts))]
}

func doneReason(resp chatResponse) string {
	if resp.DoneReason != "" {
		return resp.DoneReason
	}
	return "stop"
}

func usage(resp chatResponse) *model.TokenUsage {
	if resp.PromptEvalCount == 0 && resp.EvalCount == 0 {
		return nil
	}
	return &model.TokenUsage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
}

// Info returns metadata describing this Ollama model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:              m.name,
		Provider:          "ollama",
		SupportsStreaming: true,
	}
}
