package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// Scheduler runs named jobs on cron expressions (with a seconds field) or
// fixed intervals. Registering a name twice replaces the earlier job.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	entries  map[string]cron.EntryID
	logger   *zap.Logger
	stopOnce sync.Once
}

// New creates a Scheduler and starts its cron loop.
func New(logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		entries: make(map[string]cron.EntryID),
		logger:  logger,
	}
	s.cron.Start()
	return s
}

// AddCron registers fn under name using a six-field cron spec, e.g. "0 0 3 * * *".
func (s *Scheduler) AddCron(name, spec string, fn TaskFn) error {
	sched, err := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	).Parse(spec)
	if err != nil {
		return err
	}
	s.add(name, sched, fn)
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.String("spec", spec))
	return nil
}

// AddEvery registers fn under name to run on a fixed interval (rounded up to one second).
func (s *Scheduler) AddEvery(name string, interval time.Duration, fn TaskFn) {
	s.add(name, cron.Every(interval), fn)
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

func (s *Scheduler) add(name string, sched cron.Schedule, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[name]; ok {
		s.cron.Remove(old)
	}
	s.entries[name] = s.cron.Schedule(sched, cron.FuncJob(s.guard(name, fn)))
}

func (s *Scheduler) guard(name string, fn TaskFn) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduler task panicked",
					zap.String("task", name),
					zap.Any("recover", r))
			}
		}()
		fn()
	}
}

// Remove unregisters a task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Next returns the next activation time of a task, or false if unknown.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Tasks returns the sorted names of all registered tasks.
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stop halts the cron loop and waits for running tasks to return.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
	})
}
