package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	domainErrors "github.com/avdeyev/reviewflow/internal/domain/errors"
	"github.com/avdeyev/reviewflow/internal/domain/model"
	testhelpers "github.com/avdeyev/reviewflow/internal/test"
	"github.com/avdeyev/reviewflow/internal/usecase"
)

type facadeFixture struct {
	facade  *MarketFacade
	factory *testhelpers.FactoryStub
	gateway *testhelpers.GatewayStub
}

func newFacadeFixture() *facadeFixture {
	factory := testhelpers.NewFactoryStub()
	gateway := testhelpers.NewGatewayStub()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	incentive := usecase.NewIncentiveUseCase(factory.UserRepo, factory.ConfigRepo, logger)
	flow := usecase.NewReviewFlow(
		factory.OrderRepo, factory.ReviewRepo, factory.MerchantRepo,
		factory.UserRepo, factory.ConfigRepo,
		gateway, incentive, nil, logger,
	)
	facade := NewMarketFacade(flow, factory.OrderRepo, factory.MerchantRepo, factory.ReviewRepo, logger)
	return &facadeFixture{facade: facade, factory: factory, gateway: gateway}
}

func TestCreateMerchantValidation(t *testing.T) {
	f := newFacadeFixture()

	if _, err := f.facade.CreateMerchant(context.Background(), "", 333222); !errors.Is(err, domainErrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for empty name, got %v", err)
	}
	if _, err := f.facade.CreateMerchant(context.Background(), "小美", 0); !errors.Is(err, domainErrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for zero chat id, got %v", err)
	}

	merchant, err := f.facade.CreateMerchant(context.Background(), "小美", 333222)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merchant.ID == 0 || merchant.Name != "小美" {
		t.Fatalf("unexpected merchant %+v", merchant)
	}
}

func TestCreateOrderRequiresMerchant(t *testing.T) {
	f := newFacadeFixture()

	if _, err := f.facade.CreateOrder(context.Background(), 404, 777, 500); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found for unknown merchant, got %v", err)
	}

	merchant, _ := f.facade.CreateMerchant(context.Background(), "小美", 333222)
	order, err := f.facade.CreateOrder(context.Background(), merchant.ID, 777, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusPending || order.Price != 500 {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFacadeFixture()
	merchant, _ := f.facade.CreateMerchant(context.Background(), "小美", 333222)

	if _, err := f.facade.CreateOrder(context.Background(), merchant.ID, 777, 0); !errors.Is(err, domainErrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for zero price, got %v", err)
	}
	if _, err := f.facade.CreateOrder(context.Background(), merchant.ID, 0, 500); !errors.Is(err, domainErrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for zero customer, got %v", err)
	}
}

func TestCompleteOrderTriggersReview(t *testing.T) {
	f := newFacadeFixture()
	merchant, _ := f.facade.CreateMerchant(context.Background(), "小美", 333222)
	order, _ := f.facade.CreateOrder(context.Background(), merchant.ID, 777, 500)

	completed, triggered, err := f.facade.CompleteOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !triggered {
		t.Fatal("expected review trigger to fire")
	}
	if completed.Status != model.OrderStatusCompleted {
		t.Fatalf("expected completed status, got %s", completed.Status)
	}
	if len(f.factory.OrderRepo.Prompted) != 1 || f.factory.OrderRepo.Prompted[0] != order.ID {
		t.Fatalf("expected order marked as prompted, got %v", f.factory.OrderRepo.Prompted)
	}
	if prompts := f.gateway.TextsTo(777); len(prompts) != 1 {
		t.Fatalf("expected one rating prompt, got %d", len(prompts))
	}
}

func TestCompleteOrderRejectsReplay(t *testing.T) {
	f := newFacadeFixture()
	merchant, _ := f.facade.CreateMerchant(context.Background(), "小美", 333222)
	order, _ := f.facade.CreateOrder(context.Background(), merchant.ID, 777, 500)

	if _, _, err := f.facade.CompleteOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := f.facade.CompleteOrder(context.Background(), order.ID); !errors.Is(err, domainErrors.ErrInvalidStatus) {
		t.Fatalf("expected invalid status for second completion, got %v", err)
	}
}

func TestCompleteOrderUnknown(t *testing.T) {
	f := newFacadeFixture()
	if _, _, err := f.facade.CompleteOrder(context.Background(), 404); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReviewDetailsPassthrough(t *testing.T) {
	f := newFacadeFixture()
	f.factory.ReviewRepo.Details[2001] = &model.ReviewDetails{
		Review:       model.Review{ID: 2001, OrderID: 1001},
		MerchantName: "小美",
	}

	details, err := f.facade.ReviewDetails(context.Background(), 2001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.MerchantName != "小美" {
		t.Fatalf("unexpected details %+v", details)
	}

	if _, err := f.facade.ReviewDetails(context.Background(), 404); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPendingReviewOrdersPassthrough(t *testing.T) {
	f := newFacadeFixture()
	f.factory.OrderRepo.Pending = []model.Order{{ID: 1}, {ID: 2}, {ID: 3}}

	orders, err := f.facade.PendingReviewOrders(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(orders))
	}
}
