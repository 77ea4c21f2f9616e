package dto

import domainpricing "rentgate/internal/domain/pricing"

type Quote struct {
	Mode         string   `json:"rental_mode"`
	Nights       int      `json:"nights,omitempty"`
	BasePrice    MoneyDTO `json:"base_price"`
	Commission   MoneyDTO `json:"commission"`
	TotalPrice   MoneyDTO `json:"total_price"`
	AmountDueNow MoneyDTO `json:"amount_due_now"`
}

func MapQuote(q domainpricing.Quote) Quote {
	return Quote{
		Mode:         string(q.Mode),
		Nights:       q.Nights,
		BasePrice:    MapMoney(q.BasePrice),
		Commission:   MapMoney(q.Commission),
		TotalPrice:   MapMoney(q.TotalPrice),
		AmountDueNow: MapMoney(q.AmountDueNow),
	}
}
