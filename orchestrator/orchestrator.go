package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vitrei/parley/action"
	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/decision"
	"github.com/vitrei/parley/logging"
	"github.com/vitrei/parley/model"
	"github.com/vitrei/parley/pipeline"
	"github.com/vitrei/parley/prompt"
	"github.com/vitrei/parley/session"
)

// Options configures an Orchestrator. All collaborators have in-process
// defaults so a bare New(model) is immediately usable.
type Options struct {
	// Store holds the per-user session states. Defaults to the in-memory
	// store.
	Store core.StateStore

	// Agent decides the strategy for each turn. Defaults to ConversationOnly.
	Agent core.DecisionAgent

	// Registry resolves dispatched actions. Defaults to an empty registry.
	Registry *action.Registry

	// Composer assembles the per-turn prompts. Defaults to the bundled
	// German material.
	Composer *prompt.Composer

	// Pipeline wraps the cycle with pre and post processors. Defaults to an
	// empty pipeline.
	Pipeline *pipeline.Pipeline

	// ModelTimeout bounds each generation call. Zero disables the bound.
	ModelTimeout time.Duration

	// StreamBuffer is the delta channel capacity for streamed turns.
	StreamBuffer int

	// Logger receives turn cycle log records.
	Logger logging.Logger

	// Observer receives turn-level measurements.
	Observer Observer

	// TurnRecorded, when set, receives the user id and the full session
	// history after a turn is durably recorded. It feeds background work
	// such as profile extraction and must not block.
	TurnRecorded func(userID string, history []core.Exchange)
}

// Orchestrator coordinates the decision cycle over a single model. It is
// safe for concurrent use; turns within one session serialize on an
// internal per-user lock.
type Orchestrator struct {
	store        core.StateStore
	agent        core.DecisionAgent
	registry     *action.Registry
	composer     *prompt.Composer
	pipeline     *pipeline.Pipeline
	model        model.Model
	modelTimeout time.Duration
	streamBuffer int
	locks        *sessionLocks
	logger       *logging.ConversationLogger
	observer     Observer
	turnRecorded func(userID string, history []core.Exchange)
}

var _ core.Orchestrator = (*Orchestrator)(nil)

// New creates an Orchestrator over the given model.
func New(m model.Model, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Store:        session.NewInMemoryStore(),
		Agent:        decision.NewConversationOnly(),
		Registry:     action.NewRegistry(),
		Composer:     prompt.NewComposer(prompt.NewDefaultProvider(), "german"),
		Pipeline:     pipeline.New(),
		ModelTimeout: 60 * time.Second,
		StreamBuffer: 16,
		Observer:     nopObserver{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.StreamBuffer < 1 {
		opts.StreamBuffer = 1
	}

	return &Orchestrator{
		store:        opts.Store,
		agent:        opts.Agent,
		registry:     opts.Registry,
		composer:     opts.Composer,
		pipeline:     opts.Pipeline,
		model:        m,
		modelTimeout: opts.ModelTimeout,
		streamBuffer: opts.StreamBuffer,
		locks:        newSessionLocks(),
		logger:       logging.NewConversationLogger(opts.Logger).WithComponent("orchestrator"),
		observer:     opts.Observer,
		turnRecorded: opts.TurnRecorded,
	}
}

// Handle implements core.Orchestrator.
func (o *Orchestrator) Handle(ctx context.Context, userID, instruction string) (core.LLMAnswer, error) {
	return o.runTurn(ctx, userID, instruction, nil)
}

// HandleStream implements core.Orchestrator.
func (o *Orchestrator) HandleStream(ctx context.Context, userID, instruction string) (<-chan core.Delta, <-chan error) {
	return o.stream(ctx, func(ctx context.Context, emit func(string)) (core.LLMAnswer, error) {
		return o.runTurn(ctx, userID, instruction, emit)
	})
}

// HandleProactive implements core.Orchestrator.
func (o *Orchestrator) HandleProactive(ctx context.Context, userID string) (core.LLMAnswer, error) {
	return o.runProactive(ctx, userID, nil)
}

// HandleProactiveStream implements core.Orchestrator.
func (o *Orchestrator) HandleProactiveStream(ctx context.Context, userID string) (<-chan core.Delta, <-chan error) {
	return o.stream(ctx, func(ctx context.Context, emit func(string)) (core.LLMAnswer, error) {
		return o.runProactive(ctx, userID, emit)
	})
}

// Reset implements core.Orchestrator.
func (o *Orchestrator) Reset(ctx context.Context, userID string) error {
	release := o.locks.acquire(userID)
	defer release()

	if err := o.store.Delete(ctx, userID); err != nil {
		return turnFault("delete session state", err)
	}

	o.logger.WithUser(userID).Info("session reset")
	return nil
}

// stream adapts a turn function into the channel contract: text fragments as
// TextDelta, then one AnswerDelta, or one terminal error.
func (o *Orchestrator) stream(ctx context.Context, turn func(ctx context.Context, emit func(string)) (core.LLMAnswer, error)) (<-chan core.Delta, <-chan error) {
	deltas := make(chan core.Delta, o.streamBuffer)
	errs := make(chan error, 1)

	emit := func(text string) {
		select {
		case deltas <- core.TextDelta{Text: text}:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(deltas)
		defer close(errs)

		answer, err := turn(ctx, emit)
		if err != nil {
			errs <- err
			return
		}

		select {
		case deltas <- core.AnswerDelta{Answer: answer}:
		case <-ctx.Done():
		}
	}()

	return deltas, errs
}

// runTurn executes one full decision cycle under the session lock. When emit
// is non-nil, content fragments are forwarded as they are produced; the
// returned answer is identical either way.
func (o *Orchestrator) runTurn(ctx context.Context, userID, instruction string, emit func(string)) (core.LLMAnswer, error) {
	release := o.locks.acquire(userID)
	defer release()

	o.observer.InFlight(1)
	defer o.observer.InFlight(-1)

	started := time.Now()
	logger := o.logger.WithUser(userID)

	answer, verdict, err := o.cycle(ctx, userID, instruction, emit, logger)
	if err != nil {
		o.observer.TurnFailed(o.agent.Name(), core.KindOf(err), time.Since(started))
		logger.Error("turn failed", "kind", string(core.KindOf(err)), "error", err.Error())
		return core.LLMAnswer{}, err
	}

	o.observer.TurnCompleted(o.agent.Name(), verdict.Type, time.Since(started))
	return answer, nil
}

// cycle is the turn body: everything between acquiring the session lock and
// reporting the outcome.
func (o *Orchestrator) cycle(ctx context.Context, userID, instruction string, emit func(string), logger *logging.ConversationLogger) (core.LLMAnswer, core.NextActionDecision, error) {
	state, err := o.store.GetOrCreate(ctx, userID)
	if err != nil {
		return core.LLMAnswer{}, core.NextActionDecision{}, turnFault("load session state", err)
	}

	o.pipeline.RunPre(ctx, state)

	verdict, err := o.decide(ctx, state, logger)
	if err != nil {
		return core.LLMAnswer{}, verdict, err
	}

	// The model and history see the guided instruction, not the raw one.
	modelInstruction := instruction
	var answer core.LLMAnswer

	switch verdict.Type {
	case core.ActionDispatch:
		answer, err = o.dispatch(ctx, verdict.Action, state, instruction, emit)

	case core.GuidingInstructions:
		modelInstruction, err = o.composer.Guide(instruction, verdict.Action)
		if err == nil {
			answer, err = o.generate(ctx, state, modelInstruction, nil, emit)
		}

	case core.PromptAdaption:
		adaption := verdict.Payload
		if adaption == nil {
			adaption = map[string]any{}
		}
		answer, err = o.generate(ctx, state, instruction, adaption, emit)

	default:
		answer, err = o.generate(ctx, state, instruction, nil, emit)
	}
	if err != nil {
		return core.LLMAnswer{}, verdict, err
	}

	o.pipeline.RunPost(ctx, state, &answer)

	state.RecordTurn(modelInstruction, answer)

	if err := o.store.Save(ctx, state); err != nil {
		return core.LLMAnswer{}, verdict, turnFault("save session state", err)
	}

	if o.turnRecorded != nil {
		o.turnRecorded(userID, state.History)
	}

	return answer, verdict, nil
}

// runProactive plays the configured kickoff instruction: no decision agent,
// no pipeline, the exchange is recorded without advancing the turn counter.
func (o *Orchestrator) runProactive(ctx context.Context, userID string, emit func(string)) (core.LLMAnswer, error) {
	release := o.locks.acquire(userID)
	defer release()

	o.observer.InFlight(1)
	defer o.observer.InFlight(-1)

	logger := o.logger.WithUser(userID)

	state, err := o.store.GetOrCreate(ctx, userID)
	if err != nil {
		return core.LLMAnswer{}, turnFault("load session state", err)
	}

	kickoff, err := o.composer.Proactive()
	if err != nil {
		return core.LLMAnswer{}, err
	}

	answer, err := o.generate(ctx, state, kickoff, nil, emit)
	if err != nil {
		return core.LLMAnswer{}, err
	}

	state.AppendExchange(kickoff, answer)

	if err := o.store.Save(ctx, state); err != nil {
		return core.LLMAnswer{}, turnFault("save session state", err)
	}

	logger.Info("proactive opening played", "content_length", len(answer.Content))
	return answer, nil
}

// decide obtains the turn's verdict. A recoverable agent fault is retried
// once against the same state snapshot; agent mutations reach the working
// state only when a call succeeds.
func (o *Orchestrator) decide(ctx context.Context, state *core.AgentState, logger *logging.ConversationLogger) (core.NextActionDecision, error) {
	snapshot := state.Clone()

	verdict, err := o.agent.NextAction(ctx, snapshot)
	if err != nil && core.IsRecoverable(err) {
		logger.Warn("decision retried", "agent", o.agent.Name(), "error", err.Error())
		snapshot = state.Clone()
		verdict, err = o.agent.NextAction(ctx, snapshot)
	}
	if err != nil {
		return core.NextActionDecision{}, turnFault("decide next action", err)
	}

	if err := verdict.Validate(); err != nil {
		return core.NextActionDecision{}, core.NewConfigurationFault("decision agent returned an invalid verdict", err)
	}

	*state = *snapshot

	logger.LogDecision(o.agent.Name(), string(verdict.Type), verdict.Action, state.TurnCounter+1)
	return verdict, nil
}

// dispatch invokes a registered action. Action answers are never streamed
// fragment-wise; streamed turns receive the whole content as one delta.
func (o *Orchestrator) dispatch(ctx context.Context, name string, state *core.AgentState, instruction string, emit func(string)) (core.LLMAnswer, error) {
	started := time.Now()

	answer, err := o.registry.Invoke(ctx, name, action.Invocation{State: state, Instruction: instruction})
	o.observer.ActionCall(name, time.Since(started), err)
	if err != nil {
		return core.LLMAnswer{}, turnFault("dispatch action "+name, err)
	}

	if emit != nil && answer.Content != "" {
		emit(answer.Content)
	}

	return answer, nil
}

// generate runs one model call with the session's history. A non-nil
// adaption payload switches the system prompt to its adapted form for
// exactly this call.
func (o *Orchestrator) generate(ctx context.Context, state *core.AgentState, instruction string, adaption map[string]any, emit func(string)) (core.LLMAnswer, error) {
	var (
		system string
		err    error
	)
	if adaption != nil {
		system, err = o.composer.Adapted(o.templateData(state), adaption)
	} else {
		system, err = o.composer.System(o.templateData(state))
	}
	if err != nil {
		return core.LLMAnswer{}, err
	}

	callCtx := ctx
	if o.modelTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.modelTimeout)
		defer cancel()
	}

	req := model.Request{
		System:      system,
		History:     state.History,
		Instruction: instruction,
		Stream:      emit != nil,
	}

	started := time.Now()
	text, err := o.drain(callCtx, req, emit)
	o.observer.ModelCall(o.model.Info().Name, time.Since(started), err)
	o.logger.LogModelCall(o.model.Info().Name, time.Since(started), err)
	if err != nil {
		return core.LLMAnswer{}, turnFault("model call", err)
	}

	return core.NewLLMAnswer(text), nil
}

// drain consumes one generation, forwarding partial fragments to emit and
// returning the final text.
func (o *Orchestrator) drain(ctx context.Context, req model.Request, emit func(string)) (string, error) {
	responseChan, errChan := o.model.Generate(ctx, req)

	var (
		finalText string
		partials  strings.Builder
		sawFinal  bool
	)

	for responseChan != nil || errChan != nil {
		select {
		case resp, ok := <-responseChan:
			if !ok {
				responseChan = nil
				continue
			}
			if resp.Partial {
				partials.WriteString(resp.Text)
				if emit != nil {
					emit(resp.Text)
				}
				continue
			}
			finalText = resp.Text
			sawFinal = true
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				return "", err
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if !sawFinal {
		// Tolerate models that close after fragments only.
		if partials.Len() > 0 {
			return partials.String(), nil
		}
		return "", errors.New("model returned no final response")
	}

	return finalText, nil
}

// templateData exposes the session to prompt templates: payload entries plus
// the stable user_id, turn and phase keys.
func (o *Orchestrator) templateData(state *core.AgentState) map[string]any {
	data := make(map[string]any, len(state.Payload)+3)
	for k, v := range state.Payload {
		data[k] = v
	}
	data["user_id"] = state.UserID
	data["turn"] = state.TurnCounter
	data["phase"] = state.CurrentPhase
	return data
}

// turnFault classifies an error for the caller. Errors already inside the
// taxonomy pass through; everything else is a recoverable upstream fault.
func turnFault(msg string, err error) error {
	var f *core.Fault
	if errors.As(err, &f) {
		return err
	}
	return core.NewUpstreamFault(msg, err)
}
