// Package pipeline runs the pre- and post-processing hooks around a
// conversation turn: pre-processors enrich the working session state before
// the decision step, post-processors transform the answer before it is
// recorded and returned.
//
// Processors are best effort. A failing processor is logged and skipped; it
// never fails the turn.
package pipeline

import (
	"context"

	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/logging"
)

// PreProcessor enriches the working session state before the decision step.
type PreProcessor interface {
	Name() string
	Process(ctx context.Context, state *core.AgentState) error
}

// PostProcessor transforms the answer after generation, before recording.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, state *core.AgentState, answer *core.LLMAnswer) error
}

// Options configures a Pipeline.
type Options struct {
	// Logger receives processor failures. Defaults to a no-op logger.
	Logger logging.Logger
}

// Pipeline bundles ordered pre- and post-processors.
type Pipeline struct {
	pre    []PreProcessor
	post   []PostProcessor
	logger *logging.ConversationLogger
}

// New creates an empty pipeline.
func New(optFns ...func(o *Options)) *Pipeline {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Pipeline{
		logger: logging.NewConversationLogger(opts.Logger).WithComponent("pipeline"),
	}
}

// AppendPre adds pre-processors to run in the given order.
func (p *Pipeline) AppendPre(procs ...PreProcessor) *Pipeline {
	p.pre = append(p.pre, procs...)
	return p
}

// AppendPost adds post-processors to run in the given order.
func (p *Pipeline) AppendPost(procs ...PostProcessor) *Pipeline {
	p.post = append(p.post, procs...)
	return p
}

// RunPre applies the pre-processors to the working state.
func (p *Pipeline) RunPre(ctx context.Context, state *core.AgentState) {
	for _, proc := range p.pre {
		if err := proc.Process(ctx, state); err != nil {
			p.logger.WithUser(state.UserID).Warn("pipeline.pre.failed", "processor", proc.Name(), "error", err.Error())
		}
	}
}

// RunPost applies the post-processors to the answer.
func (p *Pipeline) RunPost(ctx context.Context, state *core.AgentState, answer *core.LLMAnswer) {
	for _, proc := range p.post {
		if err := proc.Process(ctx, state, answer); err != nil {
			p.logger.WithUser(state.UserID).Warn("pipeline.post.failed", "processor", proc.Name(), "error", err.Error())
		}
	}
}

// PreFunc adapts a function to the PreProcessor interface.
type PreFunc struct {
	name string
	fn   func(ctx context.Context, state *core.AgentState) error
}

// NewPreFunc wraps fn as a named pre-processor.
func NewPreFunc(name string, fn func(ctx context.Context, state *core.AgentState) error) *PreFunc {
	return &PreFunc{name: name, fn: fn}
}

func (f *PreFunc) Name() string { return f.name }

func (f *PreFunc) Process(ctx context.Context, state *core.AgentState) error {
	return f.fn(ctx, state)
}

// PostFunc adapts a function to the PostProcessor interface.
type PostFunc struct {
	name string
	fn   func(ctx context.Context, state *core.AgentState, answer *core.LLMAnswer) error
}

// NewPostFunc wraps fn as a named post-processor.
func NewPostFunc(name string, fn func(ctx context.Context, state *core.AgentState, answer *core.LLMAnswer) error) *PostFunc {
	return &PostFunc{name: name, fn: fn}
}

func (f *PostFunc) Name() string { return f.name }

func (f *PostFunc) Process(ctx context.Context, state *core.AgentState, answer *core.LLMAnswer) error {
	return f.fn(ctx, state, answer)
}

// PayloadStamp is a post-processor that merges a fixed entry into the answer
// payload. Deployments use it to tag every response with static metadata.
type PayloadStamp struct {
	Key   string
	Value any
}

// NewPayloadStamp creates a stamp writing value under key.
func NewPayloadStamp(key string, value any) PayloadStamp {
	return PayloadStamp{Key: key, Value: value}
}

func (s PayloadStamp) Name() string { return "payload_stamp" }

func (s PayloadStamp) Process(_ context.Context, _ *core.AgentState, answer *core.LLMAnswer) error {
	answer.MergePayload(map[string]any{s.Key: s.Value})
	return nil
}
