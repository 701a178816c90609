package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval - период рассылки, если не задан свой
const DefaultInterval = time.Hour

// Job - тело периодической задачи чата
type Job func(ctx context.Context)

type handle struct {
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// Scheduler - не больше одной периодической задачи на чат.
// Новая задача для того же чата заменяет старую, а не добавляется к ней.
type Scheduler struct {
	ctx    context.Context
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[int64]*handle
}

// NewScheduler - задачи живут, пока жив ctx или до Stop
func NewScheduler(ctx context.Context, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ctx:    ctx,
		logger: logger,
		jobs:   make(map[int64]*handle),
	}
}

// Schedule - ставит job для чата с периодом interval. Первый запуск через interval.
// Если у чата уже была задача, она отменяется и дожидается выхода до установки новой;
// replaced сообщает, была ли такая задача.
func (s *Scheduler) Schedule(chatID int64, interval time.Duration, job Job) (replaced bool) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[chatID]; ok {
		old.cancel()
		<-old.done
		delete(s.jobs, chatID)
		replaced = true
	}

	ctx, cancel := context.WithCancel(s.ctx)
	h := &handle{interval: interval, cancel: cancel, done: make(chan struct{})}
	s.jobs[chatID] = h
	go s.run(ctx, chatID, h, job)

	s.logger.Debug("scheduler.job_set",
		slog.Int64("chat_id", chatID),
		slog.Duration("interval", interval),
		slog.Bool("replaced", replaced))
	return replaced
}

// Cancel - снимает задачу чата; false означает, что снимать было нечего
func (s *Scheduler) Cancel(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.jobs[chatID]
	if !ok {
		return false
	}
	h.cancel()
	<-h.done
	delete(s.jobs, chatID)
	s.logger.Debug("scheduler.job_cancelled", slog.Int64("chat_id", chatID))
	return true
}

func (s *Scheduler) Active(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[chatID]
	return ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Stop - отменяет все задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for chatID, h := range s.jobs {
		h.cancel()
		<-h.done
		delete(s.jobs, chatID)
	}
	s.logger.Info("scheduler stopped")
}

// run - основной цикл задачи: раз в interval вызываем job до отмены контекста
func (s *Scheduler) run(ctx context.Context, chatID int64, h *handle, job Job) {
	defer close(h.done)

	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			started := time.Now()
			s.runOnce(ctx, chatID, job)
			s.logger.Debug("scheduler.tick_done",
				slog.Int64("chat_id", chatID),
				slog.Duration("duration", time.Since(started)))
		}
	}
}

// runOnce - паника в задаче одного чата не должна ронять цикл
func (s *Scheduler) runOnce(ctx context.Context, chatID int64, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler.job_panic",
				slog.Int64("chat_id", chatID),
				slog.String("err", fmt.Sprint(r)))
		}
	}()
	job(ctx)
}
