package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/avdeyev/reviewflow/internal/domain/model"
)

// MarketFacade exposes the subset of application functionality required by the worker.
type MarketFacade interface {
	PendingReviewOrders(ctx context.Context, limit int) ([]model.Order, error)
	TriggerReviewFlow(ctx context.Context, orderID, merchantID, customerUserID int64) bool
}

// ReviewTriggerProcessor polls for completed orders without a review and
// starts the review flow for each concurrently.
type ReviewTriggerProcessor struct {
	facade       MarketFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReviewTriggerProcessor constructs the trigger worker pool.
func NewReviewTriggerProcessor(facade MarketFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *ReviewTriggerProcessor {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &ReviewTriggerProcessor{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Order, batchSize*workers),
	}
}

// Start launches background processing.
func (p *ReviewTriggerProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *ReviewTriggerProcessor) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *ReviewTriggerProcessor) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *ReviewTriggerProcessor) fetchAndDispatch(ctx context.Context) {
	orders, err := p.facade.PendingReviewOrders(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("fetch orders pending review failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- order:
		}
	}
}

func (p *ReviewTriggerProcessor) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-p.jobs:
			if !ok {
				return
			}
			if !p.facade.TriggerReviewFlow(ctx, order.ID, order.MerchantID, order.CustomerUserID) {
				p.logger.Warn("review trigger declined", slog.Int64("order_id", order.ID))
			}
		}
	}
}
