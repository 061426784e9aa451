package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
	domainErrors "github.com/avdeyev/reviewflow/internal/domain/errors"
	"github.com/avdeyev/reviewflow/internal/domain/model"
	"github.com/avdeyev/reviewflow/internal/domain/repository"
)

// Configuration keys for runtime-tunable reward amounts and the report
// channel destination.
const (
	ConfigKeyReviewPoints  = "review_completion"
	ConfigKeyReviewXP      = "review_xp"
	ConfigKeyReportChannel = "report_channel_id"

	DefaultReviewPoints = 50
	DefaultReviewXP     = 20
)

// ReviewFlow coordinates the end-to-end review protocol: trigger after
// order completion, merchant confirmation, reward grant and public report.
// It holds no state of its own; every public operation reports its outcome
// as a bool and never lets an internal fault escape to the caller.
type ReviewFlow struct {
	orders    repository.OrderRepository
	reviews   repository.ReviewRepository
	merchants repository.MerchantRepository
	users     repository.UserRepository
	configs   repository.ConfigRepository
	gateway   telegram.Client
	incentive *IncentiveUseCase
	admins    []int64
	logger    *slog.Logger
}

// NewReviewFlow constructs the orchestrator with all collaborators injected.
func NewReviewFlow(
	orders repository.OrderRepository,
	reviews repository.ReviewRepository,
	merchants repository.MerchantRepository,
	users repository.UserRepository,
	configs repository.ConfigRepository,
	gateway telegram.Client,
	incentive *IncentiveUseCase,
	admins []int64,
	logger *slog.Logger,
) *ReviewFlow {
	return &ReviewFlow{
		orders:    orders,
		reviews:   reviews,
		merchants: merchants,
		users:     users,
		configs:   configs,
		gateway:   gateway,
		incentive: incentive,
		admins:    admins,
		logger:    logger,
	}
}

func (f *ReviewFlow) guard(op string, ok *bool) {
	if r := recover(); r != nil {
		f.logger.Error("review flow panic", slog.String("op", op), slog.Any("panic", r))
		*ok = false
	}
}

// TriggerReviewFlow starts the review cycle for a completed order.
// Preconditions, each a short-circuit failure: the order exists and is
// completed, no review exists for it yet, and the merchant exists.
// On success the customer receives the rating prompt.
func (f *ReviewFlow) TriggerReviewFlow(ctx context.Context, orderID, merchantID, customerUserID int64) (ok bool) {
	defer f.guard("trigger", &ok)

	order, err := f.orders.GetByID(ctx, orderID)
	if err != nil {
		f.logger.Error("cannot start review flow: order lookup failed",
			slog.Int64("order_id", orderID), slog.String("error", err.Error()))
		return false
	}
	if order.Status != model.OrderStatusCompleted {
		f.logger.Error("cannot start review flow: order not completed",
			slog.Int64("order_id", orderID), slog.String("status", string(order.Status)))
		return false
	}

	if _, err := f.reviews.GetByOrderID(ctx, orderID); err == nil {
		f.logger.Warn("review already exists for order", slog.Int64("order_id", orderID))
		return false
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		f.logger.Error("duplicate review check failed",
			slog.Int64("order_id", orderID), slog.String("error", err.Error()))
		return false
	}

	merchant, err := f.merchants.GetByID(ctx, merchantID)
	if err != nil {
		f.logger.Error("cannot start review flow: merchant lookup failed",
			slog.Int64("merchant_id", merchantID), slog.String("error", err.Error()))
		return false
	}

	// Delivery is fire-and-forget: a failed send does not undo the trigger.
	prompt := ratingPromptText(merchant.Name)
	if err := f.gateway.SendMessage(ctx, customerUserID, prompt,
		telegram.WithKeyboard(startRatingKeyboard(orderID)), telegram.WithMarkdown()); err != nil {
		f.logger.Error("rating prompt send failed",
			slog.Int64("user_id", customerUserID), slog.String("error", err.Error()))
	}

	f.logger.Info("review flow started",
		slog.Int64("order_id", orderID),
		slog.Int64("merchant_id", merchantID),
		slog.Int64("user_id", customerUserID),
	)
	return true
}

// SubmitReview persists the collected rating as a new review record and
// marks the order reviewed. It sits between rating collection and the
// merchant notification step. Returns the new review id.
func (f *ReviewFlow) SubmitReview(ctx context.Context, orderID, merchantID, customerUserID int64, rating model.Rating, textReview *string) (reviewID int64, ok bool) {
	defer f.guard("submit", &ok)

	if err := rating.Validate(); err != nil {
		f.logger.Error("review submission rejected", slog.Int64("order_id", orderID), slog.String("error", err.Error()))
		return 0, false
	}

	review, err := f.reviews.Create(ctx, orderID, merchantID, customerUserID, rating, textReview)
	if err != nil {
		f.logger.Error("review creation failed",
			slog.Int64("order_id", orderID), slog.String("error", err.Error()))
		return 0, false
	}

	if err := f.orders.UpdateStatus(ctx, orderID, model.OrderStatusReviewed); err != nil {
		f.logger.Warn("mark order reviewed failed",
			slog.Int64("order_id", orderID), slog.String("error", err.Error()))
	}

	f.logger.Info("review created", slog.Int64("review_id", review.ID), slog.Int64("order_id", orderID))
	return review.ID, true
}

// NotifyMerchantForConfirmation sends the merchant a summary of the
// submitted review with confirm/dispute buttons keyed by review id.
func (f *ReviewFlow) NotifyMerchantForConfirmation(ctx context.Context, reviewID, orderID, merchantID int64, rating model.Rating, textReview *string) (ok bool) {
	defer f.guard("notify merchant", &ok)

	merchant, err := f.merchants.GetByID(ctx, merchantID)
	if err != nil {
		f.logger.Error("merchant confirmation skipped: merchant lookup failed",
			slog.Int64("merchant_id", merchantID), slog.String("error", err.Error()))
		return false
	}

	order, err := f.orders.GetByID(ctx, orderID)
	if err != nil {
		f.logger.Error("merchant confirmation skipped: order lookup failed",
			slog.Int64("order_id", orderID), slog.String("error", err.Error()))
		return false
	}

	text := merchantConfirmationText(order, rating, textReview)
	err = f.gateway.SendMessage(ctx, merchant.ChatID, text,
		telegram.WithKeyboard(confirmationKeyboard(reviewID)), telegram.WithMarkdown())
	if err != nil {
		f.logger.Error("merchant confirmation send failed",
			slog.Int64("merchant_id", merchantID), slog.String("error", err.Error()))
		return false
	}

	f.logger.Info("merchant confirmation sent",
		slog.Int64("merchant_id", merchantID), slog.Int64("review_id", reviewID))
	return true
}

// ProcessMerchantConfirmation resolves the review. The returned bool
// encodes the confirmation outcome: the dispute path returns false even
// when the dispute notice itself was delivered.
func (f *ReviewFlow) ProcessMerchantConfirmation(ctx context.Context, reviewID, merchantID int64, confirmed bool) (ok bool) {
	defer f.guard("process confirmation", &ok)

	if !confirmed {
		f.logger.Warn("merchant disputed review", slog.Int64("review_id", reviewID))
		f.broadcastDispute(ctx, reviewID, merchantID)
		return false
	}

	if err := f.reviews.Confirm(ctx, reviewID); err != nil {
		f.logger.Error("review confirmation failed",
			slog.Int64("review_id", reviewID), slog.String("error", err.Error()))
		return false
	}

	details, err := f.reviews.GetDetails(ctx, reviewID)
	if err != nil {
		// Confirm succeeded but the detail fetch did not: an inconsistency
		// the operator must see.
		f.logger.Error("review confirmed but details unavailable",
			slog.Int64("review_id", reviewID), slog.String("error", err.Error()))
		return false
	}

	// Steps below are independently best-effort: a failure in one is
	// logged and does not roll back prior steps or abort later ones.
	points, xp := f.grantReviewRewards(ctx, details)
	f.sendReviewReport(ctx, details)
	f.notifyMerchantConfirmed(ctx, merchantID, reviewID)
	f.notifyUserRewards(ctx, details.CustomerUserID, points, xp)

	f.logger.Info("review confirmation completed", slog.Int64("review_id", reviewID))
	return true
}

func (f *ReviewFlow) grantReviewRewards(ctx context.Context, details *model.ReviewDetails) (points, xp int) {
	points, err := f.configs.GetInt(ctx, ConfigKeyReviewPoints, DefaultReviewPoints)
	if err != nil {
		f.logger.Warn("reward points config unavailable, using default", slog.String("error", err.Error()))
		points = DefaultReviewPoints
	}
	xp, err = f.configs.GetInt(ctx, ConfigKeyReviewXP, DefaultReviewXP)
	if err != nil {
		f.logger.Warn("reward xp config unavailable, using default", slog.String("error", err.Error()))
		xp = DefaultReviewXP
	}

	reason := rewardReason(details.ID)
	if err := f.incentive.GrantReviewReward(ctx, details.CustomerUserID, points, xp, reason); err != nil {
		f.logger.Error("reward grant failed",
			slog.Int64("user_id", details.CustomerUserID),
			slog.Int64("review_id", details.ID),
			slog.String("error", err.Error()))
		return points, xp
	}

	f.logger.Info("review reward granted",
		slog.Int64("user_id", details.CustomerUserID),
		slog.Int("points", points), slog.Int("xp", xp))
	return points, xp
}

func (f *ReviewFlow) sendReviewReport(ctx context.Context, details *model.ReviewDetails) {
	channel, err := f.configs.GetString(ctx, ConfigKeyReportChannel, "")
	if err != nil {
		f.logger.Warn("report channel config unavailable", slog.String("error", err.Error()))
		return
	}
	if channel == "" {
		f.logger.Warn("report channel not configured, skipping public report")
		return
	}

	chatID, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		f.logger.Warn("report channel id is not numeric, skipping public report",
			slog.String("channel", channel))
		return
	}

	text := reviewReportText(details)
	if err := f.gateway.SendMessage(ctx, chatID, text, telegram.WithMarkdown()); err != nil {
		f.logger.Error("channel report send failed",
			slog.Int64("review_id", details.ID), slog.String("error", err.Error()))
		return
	}

	f.logger.Info("review report published", slog.Int64("review_id", details.ID))
}

func (f *ReviewFlow) notifyMerchantConfirmed(ctx context.Context, merchantID, reviewID int64) {
	merchant, err := f.merchants.GetByID(ctx, merchantID)
	if err != nil {
		f.logger.Warn("merchant ack skipped: merchant lookup failed",
			slog.Int64("merchant_id", merchantID), slog.String("error", err.Error()))
		return
	}

	text := merchantConfirmedText(reviewID)
	if err := f.gateway.SendMessage(ctx, merchant.ChatID, text, telegram.WithMarkdown()); err != nil {
		f.logger.Error("merchant ack send failed",
			slog.Int64("merchant_id", merchantID), slog.String("error", err.Error()))
	}
}

func (f *ReviewFlow) notifyUserRewards(ctx context.Context, userID int64, points, xp int) {
	user, err := f.users.GetByID(ctx, userID)
	if err != nil {
		// No snapshot, no notification; the grant itself already happened.
		f.logger.Warn("reward notice skipped: user lookup failed",
			slog.Int64("user_id", userID), slog.String("error", err.Error()))
		return
	}

	text := userRewardText(user, points, xp)
	if err := f.gateway.SendMessage(ctx, userID, text, telegram.WithMarkdown()); err != nil {
		f.logger.Error("reward notice send failed",
			slog.Int64("user_id", userID), slog.String("error", err.Error()))
	}
}

func (f *ReviewFlow) broadcastDispute(ctx context.Context, reviewID, merchantID int64) {
	if len(f.admins) == 0 {
		f.logger.Warn("no administrators configured for dispute escalation",
			slog.Int64("review_id", reviewID))
		return
	}

	text := disputeNoticeText(reviewID, merchantID)
	for _, adminID := range f.admins {
		if err := f.gateway.SendMessage(ctx, adminID, text, telegram.WithMarkdown()); err != nil {
			f.logger.Error("dispute notice send failed",
				slog.Int64("admin_id", adminID), slog.String("error", err.Error()))
		}
	}
}
