package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryScheduler keeps pending deletions as timers. Pending jobs are lost on restart.
type MemoryScheduler struct {
	deleter Deleter
	logger  *zap.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func NewMemoryScheduler(deleter Deleter, logger *zap.Logger) *MemoryScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryScheduler{
		deleter: deleter,
		logger:  logger,
		timers:  make(map[string]*time.Timer),
	}
}

func (s *MemoryScheduler) ScheduleDeletion(_ context.Context, chatID int64, messageID int, delay time.Duration) error {
	job := newJob(chatID, messageID, time.Now().Add(delay))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}

	s.wg.Add(1)
	s.timers[job.ID] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.timers, job.ID)
		s.mu.Unlock()
		execute(context.Background(), s.deleter, job, s.logger)
	})
	return nil
}

func (s *MemoryScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels all pending deletions and waits for running ones.
func (s *MemoryScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancelled := 0
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
			cancelled++
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
	if cancelled > 0 {
		s.logger.Info("pending deletions dropped on shutdown", zap.Int("count", cancelled))
	}
}
