// Package export turns an event's gift records into a downloadable workbook.
package export

import (
	"math"

	"github.com/dukerupert/giftledger/internal/amount"
	"github.com/dukerupert/giftledger/internal/model"
)

var paymentLabels = map[string]string{
	"cash":   "现金",
	"wechat": "微信",
	"alipay": "支付宝",
	"bank":   "银行转账",
	"other":  "其他",
}

// PaymentLabel returns the display label for a payment type code. Unknown or
// free-text values are returned unchanged; an empty type reads as 其他.
func PaymentLabel(t string) string {
	if t == "" {
		return paymentLabels["other"]
	}
	if l, ok := paymentLabels[t]; ok {
		return l
	}
	return t
}

// TypeTotal aggregates the gifts paid through one channel.
type TypeTotal struct {
	Type  string  `json:"type"`
	Label string  `json:"label"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Summary aggregates the non-abolished gifts of one event.
type Summary struct {
	Count      int         `json:"count"`
	Total      float64     `json:"total"`
	TotalWords string      `json:"total_words"`
	ByType     []TypeTotal `json:"by_type"`
}

// Active drops abolished records, keeping order.
func Active(gifts []model.GiftRecord) []model.GiftRecord {
	out := make([]model.GiftRecord, 0, len(gifts))
	for _, g := range gifts {
		if !g.Abolished {
			out = append(out, g)
		}
	}
	return out
}

// Summarize totals the active gifts overall and per payment type. Types are
// listed in the order they first appear.
func Summarize(gifts []model.GiftRecord) Summary {
	var s Summary
	index := make(map[string]int)
	for _, g := range Active(gifts) {
		s.Count++
		s.Total += g.Amount

		label := PaymentLabel(g.Type)
		i, ok := index[label]
		if !ok {
			i = len(s.ByType)
			index[label] = i
			s.ByType = append(s.ByType, TypeTotal{Type: g.Type, Label: label})
		}
		s.ByType[i].Count++
		s.ByType[i].Total += g.Amount
	}

	s.Total = roundCents(s.Total)
	for i := range s.ByType {
		s.ByType[i].Total = roundCents(s.ByType[i].Total)
	}
	s.TotalWords = amount.ToChinese(s.Total)
	return s
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
