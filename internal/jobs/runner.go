package jobs

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

// CronJob is a named unit of background work with a cron schedule.
type CronJob interface {
	Name() string
	Schedule() string
	Run()
}

// Runner executes cron jobs, skipping a tick when the previous run of the
// same job is still in flight.
type Runner struct {
	cron    *cron.Cron
	jobs    []CronJob
	running mapset.Set[string]
	mu      sync.Mutex
}

func NewRunner(jobs ...CronJob) *Runner {
	return &Runner{
		cron:    cron.New(),
		jobs:    jobs,
		running: mapset.NewSet[string](),
	}
}

// Start schedules all jobs. Each job runs in its own goroutine inside the cron.
func (r *Runner) Start() error {
	for _, job := range r.jobs {
		if err := r.cron.AddFunc(job.Schedule(), func() {
			r.mu.Lock()
			if r.running.Contains(job.Name()) {
				r.mu.Unlock()
				logrus.Warnf("job %s is still running, skipping tick", job.Name())
				return
			}
			r.running.Add(job.Name())
			r.mu.Unlock()

			defer func() {
				r.mu.Lock()
				r.running.Remove(job.Name())
				r.mu.Unlock()
			}()

			job.Run()
		}); err != nil {
			return err
		}
	}

	r.cron.Start()
	return nil
}

func (r *Runner) Stop() {
	logrus.Info("stopping background jobs")
	r.cron.Stop()
}
