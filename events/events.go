// Package events defines the CloudEvents-style JSON envelope and payloads
// published to the event bus. Downstream delivery services (push, email)
// consume these; this service consumes entry.created itself to maintain the
// last-entry snapshot that feeds last-entry-based reminders.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	SpecVersion     = "1.0"
	DataContentType = "application/json"
	Source          = "babynest-api"

	TypeEntryCreated = "entry.created"
	TypeReminderDue  = "reminder.due"
	TypeReportDue    = "report.due"
)

type Envelope struct {
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	SpecVersion     string          `json:"specversion"`
	DataContentType string          `json:"datacontenttype"`
	Subject         string          `json:"subject,omitempty"`
	Time            int64           `json:"time"`
	Data            json.RawMessage `json:"data"`
}

// EntryCreated is emitted whenever a caregiver logs a tracking entry.
type EntryCreated struct {
	EntryID    string    `json:"entryId"`
	BabyID     string    `json:"babyId"`
	EntryType  string    `json:"entryType"`
	RecordedAt time.Time `json:"recordedAt"`
}

// ReminderDue is emitted by the scheduler when a reminder's trigger instant
// has arrived.
type ReminderDue struct {
	ReminderID string    `json:"reminderId"`
	BabyID     string    `json:"babyId"`
	EntryType  string    `json:"entryType"`
	TriggerAt  time.Time `json:"triggerAt"`
	Countdown  string    `json:"countdown"`
}

// ReportDue is emitted by the scheduler when a scheduled report should be
// generated; PeriodStart/PeriodEnd bound the data window the report covers.
type ReportDue struct {
	ReportID    string    `json:"reportId"`
	BabyID      string    `json:"babyId"`
	Frequency   string    `json:"frequency"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	NextSendAt  time.Time `json:"nextSendAt"`
}

// New wraps a payload into a ready-to-publish envelope.
func New(eventType, subject string, occurredAt time.Time, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal event payload")
	}

	return &Envelope{
		ID:              uuid.New().String(),
		Source:          Source,
		Type:            eventType,
		SpecVersion:     SpecVersion,
		DataContentType: DataContentType,
		Subject:         subject,
		Time:            occurredAt.UTC().UnixNano(),
		Data:            data,
	}, nil
}

// Marshal serializes the envelope for the wire.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal event envelope")
	}

	return data, nil
}

// Unmarshal decodes a wire message into an envelope.
func Unmarshal(data []byte) (*Envelope, error) {
	envelope := &Envelope{}

	if err := json.Unmarshal(data, envelope); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal event envelope")
	}

	return envelope, nil
}
