package models

import "fmt"

// TimeBreakdown is the result of converting a price into work time.
// Hours is non-negative; Minutes is always in [0,59]. A rounded-minutes
// value of 60 carries into Hours during conversion.
type TimeBreakdown struct {
	Hours   int64 `json:"hours" yaml:"hours"`
	Minutes int64 `json:"minutes" yaml:"minutes"`
}

func (t TimeBreakdown) String() string {
	return fmt.Sprintf("%dh %dm", t.Hours, t.Minutes)
}

// Add sums two breakdowns, carrying minutes into hours. Used by aggregate
// reports, not by the converter itself.
func (t TimeBreakdown) Add(other TimeBreakdown) TimeBreakdown {
	minutes := t.Minutes + other.Minutes
	return TimeBreakdown{
		Hours:   t.Hours + other.Hours + minutes/60,
		Minutes: minutes % 60,
	}
}
