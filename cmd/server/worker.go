package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"

	"github.com/KirkDiggler/expedition-api/internal/config"
	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/repositories/event"
	"github.com/KirkDiggler/expedition-api/internal/repositories/herolock"
	runrepo "github.com/KirkDiggler/expedition-api/internal/repositories/run"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the simulation worker",
	Long:  `Start the worker role: consumes queued expedition jobs one at a time, drives each simulation to a terminal state, and runs the periodic cleanup sweeps.`,
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	deps, err := buildDependencies(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, draining worker...")
		cancel()
	}()

	if err := deps.seedCatalog(ctx); err != nil {
		return err
	}

	scheduler, err := startSweeps(deps, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			slog.Error("Scheduler shutdown failed", "error", err)
		}
	}()

	log.Printf("Worker started (job timeout %s)", cfg.JobTimeout)

	for {
		select {
		case <-ctx.Done():
			log.Println("Worker stopped")
			return nil
		default:
		}

		job, err := deps.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Worker stopped")
				return nil
			}
			slog.Error("Dequeue failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		processOne(ctx, deps, job)
	}
}

// processOne runs one job under the queue's processing deadline. This is
// the single execution attempt: whatever happens, the job is never
// re-queued.
func processOne(ctx context.Context, deps *dependencies, job *dungeon.Job) {
	jobCtx, cancel := context.WithTimeout(ctx, deps.queue.ProcessingTimeout())
	defer cancel()

	slog.Info("Processing job", "job_id", job.ID, "run_id", job.RunID)

	if err := deps.expedition.ProcessJob(jobCtx, job); err != nil {
		// The failure is already recorded on the run; this is operator
		// visibility only.
		slog.Error("Job failed", "job_id", job.ID, "run_id", job.RunID, "error", err)
	}
}

// startSweeps schedules the periodic cleanup work: flagging delivered
// events and releasing locks still held by terminal runs
func startSweeps(deps *dependencies, cfg *config.Config) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(func() {
			sweepTerminalRuns(context.Background(), deps)
		}),
	)
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	return scheduler, nil
}

// sweepTerminalRuns walks completed and failed runs, marks their due
// events delivered, and clears any locks that survived the terminal
// transition (e.g. a worker crash between the two writes)
func sweepTerminalRuns(ctx context.Context, deps *dependencies) {
	now := time.Now()

	for _, status := range []dungeon.RunStatus{dungeon.RunStatusCompleted, dungeon.RunStatusFailed} {
		listed, err := deps.runs.ListByStatus(ctx, runrepo.ListByStatusInput{Status: status})
		if err != nil {
			slog.Error("Sweep failed to list runs", "status", string(status), "error", err)
			continue
		}

		for _, record := range listed.Runs {
			if _, err := deps.events.MarkDelivered(ctx, event.MarkDeliveredInput{
				RunID: record.ID,
				Now:   now,
			}); err != nil {
				slog.Error("Sweep failed to mark events delivered", "run_id", record.ID, "error", err)
			}

			released, err := deps.locks.Release(ctx, herolock.ReleaseInput{
				RunID:  record.ID,
				Heroes: record.Party,
			})
			if err != nil {
				slog.Error("Sweep failed to release stale locks", "run_id", record.ID, "error", err)
				continue
			}
			if released.Released > 0 {
				slog.Warn("Sweep released stale hero locks",
					"run_id", record.ID,
					"released", released.Released)
			}
		}
	}
}
