// Package loader assembles the runtime object graph from a resolved
// configuration: model provider, session store, decision agent, prompt
// material, pipeline, metrics and background profile extraction. Everything
// the configuration references by name is resolved here, before traffic,
// so a deployment with a dangling guidance or action name never starts.
package loader

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitrei/parley/action"
	"github.com/vitrei/parley/config"
	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/decision"
	"github.com/vitrei/parley/logging"
	"github.com/vitrei/parley/metrics"
	"github.com/vitrei/parley/model"
	"github.com/vitrei/parley/orchestrator"
	"github.com/vitrei/parley/phase"
	"github.com/vitrei/parley/pipeline"
	"github.com/vitrei/parley/prompt"
	"github.com/vitrei/parley/session"
	"github.com/vitrei/parley/userinfo"
)

// Options overrides parts of the graph, mainly for tests and embedders.
type Options struct {
	// Logger replaces the logger built from the config's log section.
	Logger logging.Logger
	// Model replaces the configured provider, e.g. a mock in tests.
	Model model.Model
	// Registerer receives the Prometheus collectors. Defaults to the global
	// registry.
	Registerer prometheus.Registerer
}

// Runtime is the wired application graph. Exported collaborators are safe to
// use directly; optional ones are nil when their config section disables
// them.
type Runtime struct {
	Config       *config.Config
	Logger       logging.Logger
	Orchestrator core.Orchestrator
	Store        core.StateStore
	Registry     *action.Registry
	Provider     prompt.Provider
	// Machine is set when the phase agent is configured.
	Machine *phase.Machine
	// Collector is set when metrics are enabled.
	Collector *metrics.Collector
	// Profiles is set when profile extraction is enabled.
	Profiles *userinfo.Service

	worker  *userinfo.Worker
	closers []func() error
}

// Build wires the runtime from the configuration. The returned Runtime is
// idle until Start.
func Build(cfg *config.Config, optFns ...func(o *Options)) (*Runtime, error) {
	opts := Options{
		Registerer: prometheus.DefaultRegisterer,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = logging.NewZapLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
			return nil, core.NewConfigurationFault("build logger", err)
		}
	}

	m := opts.Model
	if m == nil {
		var err error
		if m, err = buildModel(cfg.Model); err != nil {
			return nil, err
		}
	}

	rt := &Runtime{Config: cfg, Logger: logger}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(func(o *metrics.Options) {
			o.Namespace = cfg.Metrics.Namespace
			o.Registerer = opts.Registerer
		})
		rt.Collector = collector
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	rt.Provider = provider

	registry := action.NewRegistry(func(o *action.RegistryOptions) {
		o.Logger = logger
	})
	for _, a := range action.Builtins() {
		if err := registry.Register(a); err != nil {
			return nil, err
		}
	}
	rt.Registry = registry

	agent, refs, err := buildAgent(cfg, m, logger, collector)
	if err != nil {
		return nil, err
	}
	if pa, ok := agent.(*decision.PhaseAgent); ok {
		rt.Machine = pa.Machine()
	}

	if err := validateReferences(provider, registry, cfg.Language, refs); err != nil {
		return nil, err
	}

	initialPhase := ""
	if rt.Machine != nil {
		initialPhase = rt.Machine.Initial()
	}
	store, err := buildStore(cfg.Store, initialPhase, rt)
	if err != nil {
		return nil, err
	}
	rt.Store = store

	pipe := pipeline.New(func(o *pipeline.Options) {
		o.Logger = logger
	})

	var turnRecorded func(userID string, history []core.Exchange)
	if cfg.UserInfo.Enabled {
		service, worker, injector, err := buildUserInfo(cfg.UserInfo, m, logger)
		if err != nil {
			return nil, err
		}
		rt.Profiles = service
		rt.worker = worker
		pipe.AppendPre(injector)
		turnRecorded = worker.Enqueue
	}

	rt.Orchestrator = orchestrator.New(m, func(o *orchestrator.Options) {
		o.Store = store
		o.Agent = agent
		o.Registry = registry
		o.Composer = prompt.NewComposer(provider, cfg.Language)
		o.Pipeline = pipe
		o.ModelTimeout = cfg.Model.Timeout.Std()
		o.Logger = logger
		if collector != nil {
			o.Observer = collector
		}
		o.TurnRecorded = turnRecorded
	})

	return rt, nil
}

// Start launches the background collaborators. It returns immediately.
func (r *Runtime) Start(ctx context.Context) {
	if r.worker != nil {
		r.worker.Start(ctx)
	}
}

// Close drains the background collaborators and releases held connections.
func (r *Runtime) Close() error {
	if r.worker != nil {
		r.worker.Stop()
	}

	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadMachine compiles the configured phase graph without wiring the rest of
// the runtime, e.g. for the validate subcommand.
func LoadMachine(cfg *config.Config) (*phase.Machine, error) {
	if cfg.Phases.Path != "" {
		return phase.LoadFile(cfg.Phases.Path)
	}
	return phase.New(phase.DefaultGraph())
}

func buildProvider(cfg *config.Config) (prompt.Provider, error) {
	if cfg.Prompts.Path != "" {
		return prompt.NewFileProvider(cfg.Prompts.Path, cfg.Prompts.Profile)
	}
	return prompt.NewDefaultProvider(), nil
}

func buildStore(cfg config.StoreConfig, initialPhase string, rt *Runtime) (core.StateStore, error) {
	switch cfg.Kind {
	case "redis":
		store, err := session.NewRedisStore(func(o *session.RedisOptions) {
			o.Addr = cfg.Redis.Addr
			o.Password = cfg.Redis.Password
			o.DB = cfg.Redis.DB
			if cfg.Redis.KeyPrefix != "" {
				o.KeyPrefix = cfg.Redis.KeyPrefix
			}
			o.TTL = cfg.Redis.TTL.Std()
			o.InitialPhase = initialPhase
		})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store.Close)
		return store, nil
	default:
		return session.NewInMemoryStore(func(o *session.Options) {
			o.InitialPhase = initialPhase
		}), nil
	}
}

func buildUserInfo(cfg config.UserInfoConfig, m model.Model, logger logging.Logger) (*userinfo.Service, *userinfo.Worker, *userinfo.ProfileInjector, error) {
	var store userinfo.Store
	if cfg.DatabasePath != "" {
		fileStore, err := userinfo.NewFileStore(cfg.DatabasePath)
		if err != nil {
			return nil, nil, nil, core.NewConfigurationFault("open profile database", err)
		}
		store = fileStore
	} else {
		store = userinfo.NewMemoryStore()
	}

	service := userinfo.NewService(userinfo.NewModelExtractor(m), store, func(o *userinfo.ServiceOptions) {
		o.Logger = logger
	})
	worker := userinfo.NewWorker(service, func(o *userinfo.WorkerOptions) {
		o.Concurrency = cfg.Concurrency
		o.Logger = logger
	})
	injector := userinfo.NewProfileInjector(store)

	return service, worker, injector, nil
}
