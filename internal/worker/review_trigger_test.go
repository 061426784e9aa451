package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/avdeyev/reviewflow/internal/domain/model"
	testhelpers "github.com/avdeyev/reviewflow/internal/test"
)

func TestNewReviewTriggerProcessorDefaults(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	proc := NewReviewTriggerProcessor(&testhelpers.WorkerFacadeStub{}, time.Second, 0, 0, logger)
	if proc.batchSize != 1 {
		t.Fatalf("expected batch size default to 1, got %d", proc.batchSize)
	}
	if proc.workers != 1 {
		t.Fatalf("expected workers default to 1, got %d", proc.workers)
	}
}

func TestReviewTriggerProcessorTriggersOrders(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &testhelpers.WorkerFacadeStub{
		Batches:   [][]model.Order{{{ID: 1001, MerchantID: 5, CustomerUserID: 777}}},
		TriggerOK: true,
	}
	proc := NewReviewTriggerProcessor(facade, 10*time.Millisecond, 1, 2, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	proc.Start(ctx)

	deadline := time.After(500 * time.Millisecond)
	for {
		facade.Lock()
		triggered := len(facade.Triggered) > 0
		facade.Unlock()
		if triggered {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timeout waiting for review trigger")
		case <-time.After(10 * time.Millisecond):
		}
	}

	proc.Stop()
	facade.Lock()
	defer facade.Unlock()
	if facade.Triggered[0] != 1001 {
		t.Fatalf("expected order 1001 to be triggered, got %v", facade.Triggered)
	}
}

func TestReviewTriggerProcessorSurvivesDeclinedTrigger(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &testhelpers.WorkerFacadeStub{
		Batches: [][]model.Order{
			{{ID: 1, MerchantID: 5, CustomerUserID: 777}},
			{{ID: 2, MerchantID: 5, CustomerUserID: 778}},
		},
	}
	proc := NewReviewTriggerProcessor(facade, 5*time.Millisecond, 1, 1, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	proc.Start(ctx)

	deadline := time.After(time.Second)
	for {
		facade.Lock()
		done := len(facade.Triggered) >= 2
		facade.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timeout waiting for both triggers")
		case <-time.After(10 * time.Millisecond):
		}
	}
	proc.Stop()
}
