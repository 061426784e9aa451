package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
	"github.com/avdeyev/reviewflow/internal/domain/model"
	"github.com/avdeyev/reviewflow/internal/domain/repository"
	"github.com/avdeyev/reviewflow/internal/session"
)

const maxTextReviewLen = 500

// SessionStore keeps per-customer rating conversations between updates.
type SessionStore interface {
	Get(ctx context.Context, customerUserID int64) (*model.RatingSession, error)
	Save(ctx context.Context, session *model.RatingSession) error
	Delete(ctx context.Context, customerUserID int64) error
}

// Flow is the slice of the review orchestrator the dialog layer drives.
type Flow interface {
	SubmitReview(ctx context.Context, orderID, merchantID, customerUserID int64, rating model.Rating, textReview *string) (int64, bool)
	NotifyMerchantForConfirmation(ctx context.Context, reviewID, orderID, merchantID int64, rating model.Rating, textReview *string) bool
	ProcessMerchantConfirmation(ctx context.Context, reviewID, merchantID int64, confirmed bool) bool
}

// Dispatcher routes incoming Bot API updates to the rating conversation
// state machine and the merchant decision handlers. It never returns an
// error to the webhook: every failure is resolved into a user-visible
// answer or a log line.
type Dispatcher struct {
	sessions  SessionStore
	flow      Flow
	orders    repository.OrderRepository
	reviews   repository.ReviewRepository
	merchants repository.MerchantRepository
	users     repository.UserRepository
	gateway   telegram.Client
	logger    *slog.Logger
}

// NewDispatcher constructs the update router.
func NewDispatcher(
	sessions SessionStore,
	flow Flow,
	orders repository.OrderRepository,
	reviews repository.ReviewRepository,
	merchants repository.MerchantRepository,
	users repository.UserRepository,
	gateway telegram.Client,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		sessions:  sessions,
		flow:      flow,
		orders:    orders,
		reviews:   reviews,
		merchants: merchants,
		users:     users,
		gateway:   gateway,
		logger:    logger,
	}
}

// HandleUpdate processes one webhook update.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update telegram.Update) {
	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		d.handleMessage(ctx, update.Message)
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	d.touchUser(ctx, &cb.From)

	data := cb.Data
	switch {
	case strings.HasPrefix(data, confirmCallback):
		d.handleMerchantDecision(ctx, cb, strings.TrimPrefix(data, confirmCallback), true)
	case strings.HasPrefix(data, disputeCallback):
		d.handleMerchantDecision(ctx, cb, strings.TrimPrefix(data, disputeCallback), false)
	case strings.HasPrefix(data, callbackPrefix):
		d.handleRatingCallback(ctx, cb)
	default:
		d.answer(ctx, cb.ID, "", false)
	}
}

func (d *Dispatcher) handleRatingCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	parts := strings.Split(cb.Data, ":")
	if len(parts) < 3 {
		d.answer(ctx, cb.ID, "", false)
		return
	}
	action := parts[1]
	orderID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		d.answer(ctx, cb.ID, "", false)
		return
	}

	switch action {
	case actionStart:
		d.startRating(ctx, cb, orderID)
	case actionRate:
		if len(parts) != 5 {
			d.answer(ctx, cb.ID, "", false)
			return
		}
		score, err := strconv.Atoi(parts[4])
		if err != nil {
			d.answer(ctx, cb.ID, "", false)
			return
		}
		d.recordScore(ctx, cb, orderID, model.Dimension(parts[3]), score)
	case actionText:
		d.requestTextReview(ctx, cb, orderID)
	case actionSubmit:
		d.submitReview(ctx, cb, orderID)
	case actionCancel:
		d.cancelRating(ctx, cb, orderID)
	default:
		d.answer(ctx, cb.ID, "", false)
	}
}

func (d *Dispatcher) startRating(ctx context.Context, cb *telegram.CallbackQuery, orderID int64) {
	order, err := d.orders.GetByID(ctx, orderID)
	if err != nil {
		d.answer(ctx, cb.ID, "订单不存在", true)
		return
	}
	if order.CustomerUserID != cb.From.ID {
		d.answer(ctx, cb.ID, "无权限操作此订单", true)
		return
	}
	switch order.Status {
	case model.OrderStatusCompleted:
	case model.OrderStatusReviewed:
		d.answer(ctx, cb.ID, "该订单已评价", true)
		return
	default:
		d.answer(ctx, cb.ID, "订单尚未完成", true)
		return
	}

	merchant, err := d.merchants.GetByID(ctx, order.MerchantID)
	if err != nil {
		d.logger.Error("start rating: merchant lookup failed",
			slog.Int64("merchant_id", order.MerchantID), slog.String("error", err.Error()))
		d.answer(ctx, cb.ID, "暂时无法开始评价", true)
		return
	}

	sess := &model.RatingSession{
		CustomerUserID: cb.From.ID,
		OrderID:        orderID,
		MerchantID:     order.MerchantID,
		MerchantName:   merchant.Name,
		State:          model.SessionStateAwaitingRating,
		Scores:         make(map[model.Dimension]int, len(model.Dimensions)),
	}
	d.rememberPanel(sess, cb)
	if err := d.sessions.Save(ctx, sess); err != nil {
		d.logger.Error("start rating: session save failed", slog.String("error", err.Error()))
		d.answer(ctx, cb.ID, "暂时无法开始评价", true)
		return
	}

	next, _ := sess.NextDimension()
	d.showPanel(ctx, sess, ratingPanelText(sess, next), scoreKeyboard(orderID, next))
	d.answer(ctx, cb.ID, "", false)
}

func (d *Dispatcher) recordScore(ctx context.Context, cb *telegram.CallbackQuery, orderID int64, dim model.Dimension, score int) {
	sess, ok := d.loadSession(ctx, cb, orderID)
	if !ok {
		return
	}
	if score < model.RatingMin || score > model.RatingMax || dim.Label() == "" {
		d.answer(ctx, cb.ID, "无效的评分", true)
		return
	}

	sess.SetScore(dim, score)
	d.rememberPanel(sess, cb)
	if err := d.sessions.Save(ctx, sess); err != nil {
		d.logger.Error("record score: session save failed", slog.String("error", err.Error()))
		d.answer(ctx, cb.ID, "评分保存失败，请重试", true)
		return
	}

	if next, missing := sess.NextDimension(); missing {
		d.showPanel(ctx, sess, ratingPanelText(sess, next), scoreKeyboard(orderID, next))
	} else {
		d.showPanel(ctx, sess, summaryPanelText(sess), submitKeyboard(orderID))
	}
	d.answer(ctx, cb.ID, "", false)
}

func (d *Dispatcher) requestTextReview(ctx context.Context, cb *telegram.CallbackQuery, orderID int64) {
	sess, ok := d.loadSession(ctx, cb, orderID)
	if !ok {
		return
	}
	if !sess.Complete() {
		d.answer(ctx, cb.ID, "请先完成所有评分", true)
		return
	}

	sess.State = model.SessionStateAwaitingTextReview
	d.rememberPanel(sess, cb)
	if err := d.sessions.Save(ctx, sess); err != nil {
		d.logger.Error("request text: session save failed", slog.String("error", err.Error()))
		d.answer(ctx, cb.ID, "操作失败，请重试", true)
		return
	}

	d.showPanel(ctx, sess, "✍️ 请直接发送文字评价内容：", telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{},
	})
	d.answer(ctx, cb.ID, "", false)
}

func (d *Dispatcher) submitReview(ctx context.Context, cb *telegram.CallbackQuery, orderID int64) {
	sess, ok := d.loadSession(ctx, cb, orderID)
	if !ok {
		return
	}
	if !sess.Complete() {
		d.answer(ctx, cb.ID, "请先完成所有评分", true)
		return
	}

	var textReview *string
	if sess.TextReview != "" {
		textReview = &sess.TextReview
	}

	reviewID, submitted := d.flow.SubmitReview(ctx, sess.OrderID, sess.MerchantID, sess.CustomerUserID, sess.Rating(), textReview)
	if !submitted {
		d.answer(ctx, cb.ID, "评价提交失败，请稍后重试", true)
		return
	}

	if err := d.sessions.Delete(ctx, sess.CustomerUserID); err != nil {
		d.logger.Warn("submit review: session delete failed", slog.String("error", err.Error()))
	}

	d.rememberPanel(sess, cb)
	d.showPanel(ctx, sess, "✅ **评价提交成功**\n\n感谢您的反馈，评价将在商家确认后发布。", telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{},
	})
	d.answer(ctx, cb.ID, "评价已提交", false)

	d.flow.NotifyMerchantForConfirmation(ctx, reviewID, sess.OrderID, sess.MerchantID, sess.Rating(), textReview)
}

func (d *Dispatcher) cancelRating(ctx context.Context, cb *telegram.CallbackQuery, orderID int64) {
	sess, ok := d.loadSession(ctx, cb, orderID)
	if !ok {
		return
	}
	if err := d.sessions.Delete(ctx, sess.CustomerUserID); err != nil {
		d.logger.Warn("cancel rating: session delete failed", slog.String("error", err.Error()))
	}

	d.rememberPanel(sess, cb)
	d.showPanel(ctx, sess, "❌ 评价已取消", telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{},
	})
	d.answer(ctx, cb.ID, "", false)
}

func (d *Dispatcher) handleMerchantDecision(ctx context.Context, cb *telegram.CallbackQuery, rawID string, confirmed bool) {
	reviewID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		d.answer(ctx, cb.ID, "", false)
		return
	}

	details, err := d.reviews.GetDetails(ctx, reviewID)
	if err != nil {
		d.answer(ctx, cb.ID, "评价不存在", true)
		return
	}

	merchant, err := d.merchants.GetByID(ctx, details.MerchantID)
	if err != nil || merchant.ChatID != cb.From.ID {
		d.answer(ctx, cb.ID, "无权限操作此评价", true)
		return
	}
	if details.IsConfirmedByMerchant {
		d.answer(ctx, cb.ID, "该评价已确认", true)
		return
	}

	processed := d.flow.ProcessMerchantConfirmation(ctx, reviewID, details.MerchantID, confirmed)
	switch {
	case confirmed && processed:
		d.editDecisionPanel(ctx, cb, "✅ 评价已确认并发布")
		d.answer(ctx, cb.ID, "已确认", false)
	case !confirmed:
		d.editDecisionPanel(ctx, cb, "⚠️ 争议已提交，管理员将介入处理")
		d.answer(ctx, cb.ID, "争议已提交", false)
	default:
		d.answer(ctx, cb.ID, "处理失败，请稍后重试", true)
	}
}

func (d *Dispatcher) editDecisionPanel(ctx context.Context, cb *telegram.CallbackQuery, text string) {
	if cb.Message == nil {
		return
	}
	if err := d.gateway.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID, text); err != nil {
		d.logger.Error("decision panel edit failed", slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}
	d.touchUser(ctx, msg.From)

	sess, err := d.sessions.Get(ctx, msg.From.ID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			d.logger.Error("message: session lookup failed", slog.String("error", err.Error()))
		}
		return
	}
	if sess.State != model.SessionStateAwaitingTextReview {
		return
	}

	text := msg.Text
	if len([]rune(text)) > maxTextReviewLen {
		if err := d.gateway.SendMessage(ctx, msg.Chat.ID, "文字评价过长，请控制在500字以内。"); err != nil {
			d.logger.Error("message: reply send failed", slog.String("error", err.Error()))
		}
		return
	}

	sess.TextReview = text
	sess.State = model.SessionStateAwaitingRating
	if err := d.sessions.Save(ctx, sess); err != nil {
		d.logger.Error("message: session save failed", slog.String("error", err.Error()))
		return
	}

	d.showPanel(ctx, sess, summaryPanelText(sess), submitKeyboard(sess.OrderID))
}

func (d *Dispatcher) loadSession(ctx context.Context, cb *telegram.CallbackQuery, orderID int64) (*model.RatingSession, bool) {
	sess, err := d.sessions.Get(ctx, cb.From.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			d.answer(ctx, cb.ID, "评价会话已过期，请重新开始", true)
		} else {
			d.logger.Error("session lookup failed", slog.String("error", err.Error()))
			d.answer(ctx, cb.ID, "操作失败，请重试", true)
		}
		return nil, false
	}
	if sess.OrderID != orderID {
		d.answer(ctx, cb.ID, "评价会话已过期，请重新开始", true)
		return nil, false
	}
	return sess, true
}

// rememberPanel pins the conversation panel to the message the button was
// pressed on so later steps can keep editing it in place.
func (d *Dispatcher) rememberPanel(sess *model.RatingSession, cb *telegram.CallbackQuery) {
	if cb.Message != nil {
		sess.PanelChatID = cb.Message.Chat.ID
		sess.PanelMessageID = cb.Message.MessageID
	}
}

func (d *Dispatcher) showPanel(ctx context.Context, sess *model.RatingSession, text string, keyboard telegram.InlineKeyboardMarkup) {
	if sess.PanelChatID == 0 || sess.PanelMessageID == 0 {
		return
	}
	err := d.gateway.EditMessageText(ctx, sess.PanelChatID, sess.PanelMessageID, text,
		telegram.WithKeyboard(keyboard), telegram.WithMarkdown())
	if err != nil {
		d.logger.Error("panel edit failed",
			slog.Int64("chat_id", sess.PanelChatID), slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) answer(ctx context.Context, callbackID, text string, alert bool) {
	if err := d.gateway.AnswerCallbackQuery(ctx, callbackID, text, alert); err != nil {
		d.logger.Error("callback answer failed", slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) touchUser(ctx context.Context, from *telegram.User) {
	if _, err := d.users.Upsert(ctx, from.ID, from.Username); err != nil {
		d.logger.Warn("user upsert failed",
			slog.Int64("user_id", from.ID), slog.String("error", err.Error()))
	}
}
