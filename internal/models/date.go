package models

import "time"

// DateLayout is the only accepted textual form of a calendar day: DD.MM.YYYY.
const DateLayout = "02.01.2006"

// Date is a calendar day without time or zone. The zero value is not a valid
// date; 01.01.0001 built through NewDate is.
type Date struct {
	day time.Time
	set bool
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{day: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), set: true}
}

// String renders the date in DateLayout.
func (d Date) String() string {
	if !d.set {
		return ""
	}
	return d.day.Format(DateLayout)
}

func (d Date) IsZero() bool {
	return !d.set
}
