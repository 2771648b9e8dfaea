package models

import (
	"strconv"
	"strings"
	"time"
)

// Availability is the outcome of a ledger lookup.
type Availability string

const (
	AvailabilityUnknown Availability = ""
	AvailabilityFree    Availability = "free"
	AvailabilityBooked  Availability = "booked"
)

// Booked reports whether the date is taken.
func (a Availability) Booked() bool {
	return a == AvailabilityBooked
}

// StatusLabel is the short label shown to admins.
func (a Availability) StatusLabel() string {
	switch a {
	case AvailabilityBooked:
		return "BOOKED"
	case AvailabilityFree:
		return "FREE"
	default:
		return "UNKNOWN"
	}
}

// Requester identifies the chat user asking about a date.
type Requester struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// FullName joins first and last name, falling back to the numeric id.
func (r Requester) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
	if name == "" {
		return "id" + strconv.FormatInt(r.ID, 10)
	}
	return name
}

// Handle returns "@username" when the user has one, otherwise the full name.
func (r Requester) Handle() string {
	if r.Username != "" {
		return "@" + r.Username
	}
	return r.FullName()
}

// QueryRecord summarises one date check for the admin notification. It is never persisted.
type QueryRecord struct {
	Requester    Requester
	Date         Date
	Availability Availability
	CheckedAt    time.Time
}

// InboundMessage is a text message received from the chat transport.
type InboundMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Command   string
	From      Requester
}

// AdminNotification is one rendered notification addressed to a single sink.
type AdminNotification struct {
	ID     string
	Sink   string
	Text   string
	Record QueryRecord
}
