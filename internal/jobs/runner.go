package jobs

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Runner schedules background jobs on cron specs. All jobs share the base
// context so shutdown cancels in-flight work.
type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
}

func NewRunner(baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(),
		baseCtx: baseCtx,
	}
}

// Add registers a job under a cron spec such as "@every 1m"
func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		job(r.baseCtx)
	})
}

// Start begins running scheduled jobs in the background
func (r *Runner) Start() {
	log.Println("[Jobs] Cron runner started")
	r.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Println("[Jobs] Cron runner stopped")
}
