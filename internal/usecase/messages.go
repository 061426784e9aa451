package usecase

import (
	"fmt"
	"strings"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
	"github.com/avdeyev/reviewflow/internal/domain/model"
)

const timeLayout = "2006-01-02 15:04"

func rewardReason(reviewID int64) string {
	return fmt.Sprintf("完成服务评价 (评价ID: %d)", reviewID)
}

// maskUsername hides all but the first rune of a customer handle before it
// is published to the report channel.
func maskUsername(username string) string {
	if username == "" {
		return "匿名用户"
	}
	runes := []rune(username)
	return string(runes[0]) + "***"
}

func ratingPromptText(merchantName string) string {
	var b strings.Builder
	b.WriteString("🌟 **服务体验评价**\n\n")
	fmt.Fprintf(&b, "您刚完成了与 **%s** 的服务订单。\n", merchantName)
	b.WriteString("请为本次服务进行评价：\n\n")
	fmt.Fprintf(&b, "📊 请选择各维度的评分 (%d-%d分)：\n", model.RatingMin, model.RatingMax)
	for _, d := range model.Dimensions {
		fmt.Fprintf(&b, "• %s\n", d.Label())
	}
	b.WriteString("\n点击下方按钮开始评分 👇")
	return b.String()
}

func startRatingKeyboard(orderID int64) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "🌟 开始评价", CallbackData: fmt.Sprintf("rv:start:%d", orderID)}},
	}}
}

func merchantConfirmationText(order *model.Order, rating model.Rating, textReview *string) string {
	completed := "未记录"
	if order.CompletedAt != nil {
		completed = order.CompletedAt.Format(timeLayout)
	}

	var b strings.Builder
	b.WriteString("📝 **收到新的服务评价**\n\n")
	b.WriteString("**订单信息：**\n")
	fmt.Fprintf(&b, "订单编号：#%d\n", order.ID)
	fmt.Fprintf(&b, "服务价格：%.2f\n", order.Price)
	fmt.Fprintf(&b, "完成时间：%s\n\n", completed)
	b.WriteString("**评价详情：**\n")
	for _, d := range model.Dimensions {
		fmt.Fprintf(&b, "• %s：%d/%d\n", d.Label(), rating.Score(d), model.RatingMax)
	}
	fmt.Fprintf(&b, "\n综合评分：%.1f/%d\n", rating.Mean(), model.RatingMax)
	if textReview != nil && *textReview != "" {
		fmt.Fprintf(&b, "\n文字评价：%s\n", *textReview)
	}
	b.WriteString("\n请确认此评价的真实性：")
	return b.String()
}

func confirmationKeyboard(reviewID int64) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{
			{Text: "✅ 确认评价", CallbackData: fmt.Sprintf("confirm_review_%d", reviewID)},
			{Text: "⚠️ 有异议", CallbackData: fmt.Sprintf("dispute_review_%d", reviewID)},
		},
	}}
}

func reviewReportText(details *model.ReviewDetails) string {
	var b strings.Builder
	b.WriteString("📊 **服务评价报告**\n\n")
	fmt.Fprintf(&b, "**商家：** %s\n", details.MerchantName)
	fmt.Fprintf(&b, "**订单：** #%d\n", details.OrderID)
	fmt.Fprintf(&b, "**用户：** %s\n\n", maskUsername(details.CustomerUsername))
	b.WriteString("**评分详情：**\n")
	for _, d := range model.Dimensions {
		fmt.Fprintf(&b, "• %s：%d/%d\n", d.Label(), details.Rating.Score(d), model.RatingMax)
	}
	fmt.Fprintf(&b, "\n综合评分：%.1f/%d\n", details.Rating.Mean(), model.RatingMax)
	if details.TextReview != nil && *details.TextReview != "" {
		fmt.Fprintf(&b, "\n用户评价：%s\n", *details.TextReview)
	}
	fmt.Fprintf(&b, "\n⏰ 评价时间：%s", details.CreatedAt.Format(timeLayout))
	return b.String()
}

func merchantConfirmedText(reviewID int64) string {
	return fmt.Sprintf("✅ **评价确认成功**\n\n评价 #%d 已确认并发布。\n感谢您的配合！", reviewID)
}

func userRewardText(user *model.User, points, xp int) string {
	var b strings.Builder
	b.WriteString("🎉 **评价奖励已到账**\n\n")
	fmt.Fprintf(&b, "积分 +%d，经验 +%d\n\n", points, xp)
	fmt.Fprintf(&b, "当前积分：%d\n", user.Points)
	fmt.Fprintf(&b, "当前经验：%d\n", user.XP)
	fmt.Fprintf(&b, "当前等级：%s\n\n", user.LevelName)
	b.WriteString("感谢您的评价！")
	return b.String()
}

func disputeNoticeText(reviewID, merchantID int64) string {
	var b strings.Builder
	b.WriteString("⚠️ **评价争议报告**\n\n")
	fmt.Fprintf(&b, "商家 #%d 对评价 #%d 提出异议。\n", merchantID, reviewID)
	b.WriteString("请及时介入处理此争议。")
	return b.String()
}
