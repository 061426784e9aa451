package bot

import (
	"fmt"
	"strings"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
	"github.com/avdeyev/reviewflow/internal/domain/model"
)

// Callback data grammar. Rating flow callbacks are colon separated and
// carry the order id; merchant decision callbacks carry the review id.
const (
	callbackPrefix  = "rv:"
	actionStart     = "start"
	actionRate      = "rate"
	actionText      = "text"
	actionSubmit    = "submit"
	actionCancel    = "cancel"
	confirmCallback = "confirm_review_"
	disputeCallback = "dispute_review_"
)

// scoreKeyboard renders the 1-10 score picker for one dimension in two
// rows, with a cancel row below.
func scoreKeyboard(orderID int64, d model.Dimension) telegram.InlineKeyboardMarkup {
	row := func(from, to int) []telegram.InlineKeyboardButton {
		buttons := make([]telegram.InlineKeyboardButton, 0, to-from+1)
		for score := from; score <= to; score++ {
			buttons = append(buttons, telegram.InlineKeyboardButton{
				Text:         fmt.Sprintf("%d", score),
				CallbackData: fmt.Sprintf("rv:%s:%d:%s:%d", actionRate, orderID, d, score),
			})
		}
		return buttons
	}
	return telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		row(1, 5),
		row(6, 10),
		{{Text: "❌ 取消评价", CallbackData: fmt.Sprintf("rv:%s:%d", actionCancel, orderID)}},
	}}
}

// submitKeyboard renders the final panel actions once all scores are in.
func submitKeyboard(orderID int64) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "✍️ 填写文字评价", CallbackData: fmt.Sprintf("rv:%s:%d", actionText, orderID)}},
		{
			{Text: "✅ 提交评价", CallbackData: fmt.Sprintf("rv:%s:%d", actionSubmit, orderID)},
			{Text: "❌ 取消评价", CallbackData: fmt.Sprintf("rv:%s:%d", actionCancel, orderID)},
		},
	}}
}

// ratingPanelText shows collected scores and prompts for the next dimension.
func ratingPanelText(session *model.RatingSession, next model.Dimension) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌟 **正在评价 %s**\n\n", session.MerchantName)
	for _, d := range model.Dimensions {
		if score, ok := session.Scores[d]; ok {
			fmt.Fprintf(&b, "✅ %s：%d/%d\n", d.Label(), score, model.RatingMax)
		}
	}
	fmt.Fprintf(&b, "\n请为 **%s** 打分 (%d-%d)：", next.Label(), model.RatingMin, model.RatingMax)
	return b.String()
}

// summaryPanelText shows the completed score card before submission.
func summaryPanelText(session *model.RatingSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌟 **评价 %s 已填写完成**\n\n", session.MerchantName)
	for _, d := range model.Dimensions {
		fmt.Fprintf(&b, "• %s：%d/%d\n", d.Label(), session.Scores[d], model.RatingMax)
	}
	rating := session.Rating()
	fmt.Fprintf(&b, "\n综合评分：%.1f/%d\n", rating.Mean(), model.RatingMax)
	if session.TextReview != "" {
		fmt.Fprintf(&b, "\n文字评价：%s\n", session.TextReview)
	}
	b.WriteString("\n确认无误后请提交 👇")
	return b.String()
}
