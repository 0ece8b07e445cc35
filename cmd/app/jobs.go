package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ai-coach-chat/internal/config"
	"ai-coach-chat/internal/infra/worker"
)

func newJobsCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Chat job maintenance commands",
	}
	cmd.AddCommand(newJobsRequeueCmd(f))
	cmd.AddCommand(newJobsSweepCmd(f))
	return cmd
}

func newJobsRequeueCmd(f *rootFlags) *cobra.Command {
	var inline bool
	cmd := &cobra.Command{
		Use:   "requeue <jobID>",
		Short: "Dispatch a pending job again",
		Long: "With dispatch.mode redis the job is pushed onto the queue for the running\n" +
			"server's consumers. Otherwise, or with --inline, it is processed in this process.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			cfg, log, err := f.load()
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.jobs.FindDetail(ctx, nil, args[0])
			if err != nil {
				return fmt.Errorf("find job %s: %w", args[0], err)
			}
			if d.Status.IsTerminal() {
				return fmt.Errorf("job %s is already %s", d.JobID, d.Status)
			}

			out := cmd.OutOrStdout()
			if requeueInline(cfg, inline) {
				if err := a.processor.Process(ctx, d.JobID, d.UserID); err != nil {
					return err
				}
				fmt.Fprintf(out, "processed %s\n", d.JobID)
				return nil
			}
			a.jobQueue().Dispatch(ctx, d.JobID, d.UserID)
			fmt.Fprintf(out, "queued %s\n", d.JobID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&inline, "inline", false, "process the job in this process instead of queueing it")
	return cmd
}

// requeueInline reports whether requeue processes the job itself. Only the
// redis transport has consumers outside this process to hand the job to.
func requeueInline(cfg *config.Config, inline bool) bool {
	return inline || cfg.Dispatch.Mode != "redis"
}

// newJobsSweepCmd runs one recovery sweep and processes what it finds inline.
func newJobsSweepCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one recovery sweep now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			cfg, log, err := f.load()
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			pool := worker.NewPool(cfg.Worker.Workers, cfg.Worker.QueueSize, log)
			pool.Start(ctx)
			n, err := a.sweeper(worker.NewPoolDispatcher(pool, a.processor, cfg.Runtime.Dev, log)).Sweep(ctx)
			pool.Drain()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "re-dispatched %d job(s)\n", n)
			return nil
		},
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
