// Package scheduler runs configured briefing jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/mohammad-safakhou/briefer/config"
	"github.com/mohammad-safakhou/briefer/internal/telemetry"
	"github.com/mohammad-safakhou/briefer/models"
)

// Briefer produces one briefing.
type Briefer interface {
	Brief(ctx context.Context, prompt string, n int, country string) (models.Briefing, error)
}

// Locker guards a job occurrence across replicas. Cache in redis_repository
// satisfies it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
}

var defaultLogger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)

type job struct {
	cfg  config.ScheduledJob
	expr *cronexpr.Expression
	next time.Time
}

type Scheduler struct {
	Briefer Briefer
	Locker  Locker
	Tick    time.Duration
	Timeout time.Duration
	Metrics *telemetry.Metrics
	Logger  *log.Logger
	Now     func() time.Time

	mu   sync.Mutex
	jobs []*job
	wg   sync.WaitGroup
}

// New parses every job's cron expression. Jobs first fire at their next
// occurrence after now, never immediately at startup.
func New(cfg config.SchedulerConfig, b Briefer, locker Locker) (*Scheduler, error) {
	s := &Scheduler{Briefer: b, Locker: locker, Tick: cfg.Tick, Now: time.Now, Timeout: 30 * time.Minute}
	now := s.Now()
	for _, jc := range cfg.Jobs {
		expr, err := cronexpr.Parse(jc.Cron)
		if err != nil {
			return nil, fmt.Errorf("job %q: parse cron %q: %w", jc.Name, jc.Cron, err)
		}
		if jc.Name == "" {
			jc.Name = jc.Prompt
		}
		s.jobs = append(s.jobs, &job{cfg: jc, expr: expr, next: expr.Next(now)})
	}
	return s, nil
}

func (s *Scheduler) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return defaultLogger
}

// Start blocks, checking for due jobs every Tick, until ctx is done. Runs
// still in flight are waited for before returning.
func (s *Scheduler) Start(ctx context.Context) {
	tick := s.Tick
	if tick <= 0 {
		tick = time.Minute
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	s.logger().Printf("scheduler started with %d jobs", len(s.jobs))
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// RunDue launches every job whose next occurrence has passed and advances it.
func (s *Scheduler) RunDue(ctx context.Context) int {
	now := s.Now()
	s.mu.Lock()
	var due []dueRun
	for _, j := range s.jobs {
		if j.next.IsZero() || j.next.After(now) {
			continue
		}
		due = append(due, dueRun{cfg: j.cfg, at: j.next})
		j.next = j.expr.Next(now)
	}
	s.mu.Unlock()

	for _, d := range due {
		s.wg.Add(1)
		go func(d dueRun) {
			defer s.wg.Done()
			s.run(ctx, d)
		}(d)
	}
	return len(due)
}

// Wait blocks until launched runs finish.
func (s *Scheduler) Wait() { s.wg.Wait() }

type dueRun struct {
	cfg config.ScheduledJob
	at  time.Time
}

func (s *Scheduler) lockTTL() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return time.Hour
}

// run briefs one occurrence. Successful runs keep the lock until it expires
// so no replica repeats the occurrence; failed runs release it.
func (s *Scheduler) run(ctx context.Context, d dueRun) {
	lg := s.logger()
	var key, token string
	if s.Locker != nil {
		key = fmt.Sprintf("sched:lock:%s:%d", d.cfg.Name, d.at.Unix())
		var ok bool
		var err error
		token, ok, err = s.Locker.TryLock(ctx, key, s.lockTTL())
		if err != nil {
			lg.Printf("job %s: lock: %v", d.cfg.Name, err)
			return
		}
		if !ok {
			lg.Printf("job %s: occurrence %s taken by another instance", d.cfg.Name, d.at.Format(time.RFC3339))
			return
		}
	}
	runCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	n := d.cfg.SynonymRange
	if n <= 0 {
		n = 3
	}
	b, err := s.Briefer.Brief(runCtx, d.cfg.Prompt, n, d.cfg.Country)
	s.Metrics.SchedulerRun(d.cfg.Name, err)
	if err != nil {
		lg.Printf("job %s failed: %v", d.cfg.Name, err)
		if token != "" {
			if uerr := s.Locker.Unlock(context.Background(), key, token); uerr != nil {
				lg.Printf("job %s: unlock: %v", d.cfg.Name, uerr)
			}
		}
		return
	}
	lg.Printf("job %s produced %d items (id=%s)", d.cfg.Name, len(b.Items), b.ID)
}
