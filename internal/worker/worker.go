// worker/worker.go
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"texhub/internal/config"
	"texhub/internal/domain"
	"texhub/internal/messaging"
	"texhub/internal/repository"
	"texhub/pkg/planning"
)

// Worker consumes plan recompute events, normalizes the plan's derived
// fields through the planning engine, writes the result back and appends an
// immutable snapshot for the history views.
type Worker struct {
	id           string
	planRepo     repository.PlanRepository
	snapshotRepo repository.SnapshotRepository
	msgClient    messaging.MessageClient
	engine       *planning.Engine
	cfg          *config.Config
	stopChan     chan struct{}
	wg           sync.WaitGroup
	isRunning    atomic.Bool
	processed    atomic.Int64
	failed       atomic.Int64
	processing   atomic.Int32 // Количество планов в обработке
}

func NewWorker(id string, planRepo repository.PlanRepository, snapshotRepo repository.SnapshotRepository,
	msgClient messaging.MessageClient, engine *planning.Engine, cfg *config.Config) *Worker {

	return &Worker{
		id:           id,
		planRepo:     planRepo,
		snapshotRepo: snapshotRepo,
		msgClient:    msgClient,
		engine:       engine,
		cfg:          cfg,
		stopChan:     make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.isRunning.Store(true)
	log.Printf("Worker %s starting...", w.id)

	// Подписываемся на события
	if err := w.msgClient.SubscribeToPlans(ctx, w.handlePlan); err != nil {
		return fmt.Errorf("failed to subscribe to plan events: %w", err)
	}

	// Запускаем мониторинг
	go w.runMonitor(ctx)

	// Ждем сигнал остановки
	<-w.stopChan
	w.isRunning.Store(false)

	// Ждем завершения всех задач
	w.wg.Wait()

	log.Printf("Worker %s stopped. Stats: processed=%d, failed=%d",
		w.id, w.processed.Load(), w.failed.Load())
	return nil
}

func (w *Worker) runMonitor(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := w.GetStats()
			log.Printf("Worker %s stats: %+v", w.id, stats)
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) handlePlan(planID string) {
	w.wg.Add(1)
	w.processing.Add(1)

	defer func() {
		w.processing.Add(-1)
		w.wg.Done()
	}()

	start := time.Now()

	// Создаем контекст с таймаутом
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.TaskTimeout)
	defer cancel()

	err := w.processPlanWithRetry(ctx, planID)

	duration := time.Since(start)
	if err != nil {
		log.Printf("Worker %s failed plan %s after %v: %v",
			w.id, planID, duration, err)
		w.failed.Add(1)
	} else {
		log.Printf("Worker %s completed plan %s in %v",
			w.id, planID, duration)
		w.processed.Add(1)
	}
}

func (w *Worker) processPlanWithRetry(ctx context.Context, planID string) error {
	maxRetries := w.cfg.MaxRetries

	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled")
		default:
			err := w.processSinglePlan(ctx, planID)
			if err == nil {
				return nil // Успех
			}

			if attempt < maxRetries {
				log.Printf("Worker %s retrying plan %s (attempt %d/%d): %v",
					w.id, planID, attempt, maxRetries, err)
				time.Sleep(time.Duration(attempt) * time.Second)
			} else {
				return fmt.Errorf("failed after %d attempts: %w", maxRetries, err)
			}
		}
	}

	return fmt.Errorf("max retries exceeded")
}

func (w *Worker) processSinglePlan(ctx context.Context, planID string) error {
	plan, err := w.planRepo.GetPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to get plan: %w", err)
	}

	recomputed := w.engine.Recompute(*plan)

	if err := w.planRepo.ReplacePlan(ctx, &recomputed); err != nil {
		return fmt.Errorf("failed to store recomputed plan: %w", err)
	}

	// История читает только снимки, живой документ ей не отдается
	snapshot := &domain.PlanSnapshot{
		PlanID: recomputed.ID,
		Plan:   recomputed,
	}
	if err := w.snapshotRepo.CreateSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to store plan snapshot: %w", err)
	}

	return nil
}

func (w *Worker) Stop() {
	if w.isRunning.CompareAndSwap(true, false) {
		log.Printf("Stopping worker %s...", w.id)
		close(w.stopChan)
	}
}

func (w *Worker) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"id":         w.id,
		"running":    w.isRunning.Load(),
		"processed":  w.processed.Load(),
		"failed":     w.failed.Load(),
		"processing": w.processing.Load(),
	}
}

func (w *Worker) IsRunning() bool {
	return w.isRunning.Load()
}
