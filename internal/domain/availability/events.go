package availability

import "time"

type OverridesUpdated struct {
	ListingID   string
	Dates       []time.Time
	IsAvailable bool
	UpdatedBy   string
	At          time.Time
}

func (e OverridesUpdated) EventName() string     { return "availability.overrides_updated" }
func (e OverridesUpdated) AggregateID() string   { return e.ListingID }
func (e OverridesUpdated) OccurredAt() time.Time { return e.At }
