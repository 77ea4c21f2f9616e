package mongo

import (
	"time"

	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/money"
)

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Calendar days are stored as YYYY-MM-DD so range filters compare lexically.
func dayToString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return daterange.FormatDay(t)
}

func stringToDay(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	day, err := daterange.ParseDay(raw)
	if err != nil {
		return time.Time{}
	}
	return day
}
