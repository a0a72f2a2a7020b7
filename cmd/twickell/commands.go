package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/franklstreet-svg/twickell/internal/config"
	"github.com/franklstreet-svg/twickell/internal/history/factory"
	"github.com/franklstreet-svg/twickell/internal/service"
	"github.com/franklstreet-svg/twickell/internal/supervisor"
)

// runtime bundles everything a command invocation needs. Built fresh per
// invocation; the supervisor itself keeps no state between commands.
type runtime struct {
	cfg   *config.Config
	specs []service.Spec
	sup   *supervisor.Supervisor
	out   io.Writer
}

func newRuntime(gf *GlobalFlags, out io.Writer) (*runtime, error) {
	cfg, err := config.Load(gf.ConfigPath)
	if err != nil {
		return nil, err
	}
	specs, err := cfg.Specs()
	if err != nil {
		return nil, err
	}
	sup := supervisor.New()
	sup.SetLogger(cfg.Log.New("twickell"))
	if cfg.HistoryDSN != "" {
		if sink, err := factory.NewSinkFromDSN(cfg.HistoryDSN); err == nil {
			sup.SetHistory(sink)
		}
		// A broken history DSN never blocks supervision.
	}
	return &runtime{cfg: cfg, specs: specs, sup: sup, out: out}, nil
}

// rootMissing reports the distinct environment precondition. Commands
// print the sentinel and exit zero: the supervisor always prefers
// reporting a status line over propagating an exit-code failure.
func (rt *runtime) rootMissing() bool {
	return supervisor.EnsureRoot(rt.cfg.Root) != nil
}

func (rt *runtime) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(rt.out, format+"\n", args...)
}

// selectSpecs resolves positional service names, defaulting to every
// configured service in config order.
func (rt *runtime) selectSpecs(names []string) ([]service.Spec, error) {
	if len(names) == 0 {
		return rt.specs, nil
	}
	out := make([]service.Spec, 0, len(names))
	for _, name := range names {
		sp, err := rt.cfg.FindSpec(name)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}

func createStatusCommand(gf *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status [service...]",
		Short: "Report process, port, and health state, one fact per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(gf, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if rt.rootMissing() {
				rt.printf("ROOT_MISSING %s", rt.cfg.Root)
				return nil
			}
			specs, err := rt.selectSpecs(args)
			if err != nil {
				return err
			}
			for _, sp := range specs {
				rt.printHandle(sp, rt.sup.Status(cmd.Context(), sp))
			}
			return nil
		},
	}
}

func createStartCommand(gf *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start [service...]",
		Short: "Launch each service unless an instance is already running",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(gf, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if rt.rootMissing() {
				rt.printf("ROOT_MISSING %s", rt.cfg.Root)
				return nil
			}
			specs, err := rt.selectSpecs(args)
			if err != nil {
				return err
			}
			for _, sp := range specs {
				res, err := rt.sup.Start(cmd.Context(), sp)
				if err != nil && res == supervisor.Failed {
					rt.printf("%s: %s (%v)", sp.Name, res, err)
					continue
				}
				rt.printf("%s: %s", sp.Name, res)
			}
			return nil
		},
	}
}

func createStopCommand(gf *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop [service...]",
		Short: "Signal-terminate each service; absent services are a fact, not an error",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(gf, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if rt.rootMissing() {
				rt.printf("ROOT_MISSING %s", rt.cfg.Root)
				return nil
			}
			specs, err := rt.selectSpecs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			for _, sp := range specs {
				rt.stopOne(ctx, sp)
			}
			return nil
		},
	}
}

func createRestartCommand(gf *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restart [service...]",
		Short: "Stop then start each service",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(gf, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if rt.rootMissing() {
				rt.printf("ROOT_MISSING %s", rt.cfg.Root)
				return nil
			}
			specs, err := rt.selectSpecs(args)
			if err != nil {
				return err
			}
			for _, sp := range specs {
				res, err := rt.sup.Restart(cmd.Context(), sp)
				if err != nil && res == supervisor.Failed {
					rt.printf("%s: %s (%v)", sp.Name, res, err)
					continue
				}
				rt.printf("%s: %s", sp.Name, res)
			}
			return nil
		},
	}
}

func (rt *runtime) stopOne(ctx context.Context, sp service.Spec) {
	wasRunning := rt.sup.Status(ctx, sp).Running
	if err := rt.sup.Stop(ctx, sp); err != nil {
		rt.printf("%s: stop failed (%v)", sp.Name, err)
		return
	}
	if wasRunning {
		rt.printf("%s: STOPPED", sp.Name)
	} else {
		rt.printf("%s: NOT_RUNNING", sp.Name)
	}
}
