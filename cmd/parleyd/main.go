// Command parleyd serves the conversation backend over HTTP.
//
// Usage:
//
//	parleyd                               # serve with built-in defaults
//	parleyd --config configs/parley.yaml  # serve with a config file
//	parleyd phases validate               # check the configured phase graph
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitrei/parley/config"
	"github.com/vitrei/parley/loader"
	"github.com/vitrei/parley/server"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:     "parleyd",
		Short:   "Multi-turn conversation backend",
		Version: version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, cfgPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to the YAML config file")

	root.AddCommand(newPhasesCmd(&cfgPath))

	return root
}

func runServe(cmd *cobra.Command, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	rt, err := loader.Build(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.Start(ctx)

	var metricsHandler http.Handler
	if rt.Collector != nil {
		metricsHandler = rt.Collector.Handler()
	}

	srv := server.New(rt.Orchestrator, func(o *server.Options) {
		o.Addr = cfg.Server.Addr
		o.ReadTimeout = cfg.Server.ReadTimeout.Std()
		o.WriteTimeout = cfg.Server.WriteTimeout.Std()
		o.ShutdownTimeout = cfg.Server.ShutdownTimeout.Std()
		o.H2C = cfg.Server.H2C
		o.Metrics = metricsHandler
		o.Version = version
		o.Logger = rt.Logger
	})

	return srv.Run(ctx)
}

func newPhasesCmd(cfgPath *string) *cobra.Command {
	phases := &cobra.Command{
		Use:   "phases",
		Short: "Work with the conversation phase graph",
	}

	phases.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Compile the configured phase graph and report its structure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}

			machine, err := loader.LoadMachine(cfg)
			if err != nil {
				return err
			}

			ids := machine.PhaseIDs()

			source := cfg.Phases.Path
			if source == "" {
				source = "built-in graph"
			}
			cmd.Printf("%s: %d phases, initial %s, error %s\n", source, len(ids), machine.Initial(), machine.ErrorPhase())
			for _, id := range ids {
				p, _ := machine.Phase(id)
				cmd.Printf("  %-8s %-16s -> %v\n", id, p.Name, machine.Allowed(id))
			}
			return nil
		},
	})

	return phases
}
