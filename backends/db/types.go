package db

import "time"

// Record types scanned from Postgres rows. Growth metrics keep their storage
// units (grams, millimeters); conversion happens at presentation boundaries.

type Baby struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birthDate"`
	CreatedAt time.Time `json:"createdAt"`
}

type TrackingEntry struct {
	ID         string    `json:"id"`
	BabyID     string    `json:"babyId"`
	EntryType  string    `json:"entryType"`
	RecordedAt time.Time `json:"recordedAt"`
	Note       *string   `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type GrowthMeasurement struct {
	ID                  string    `json:"id"`
	BabyID              string    `json:"babyId"`
	RecordedAt          time.Time `json:"recordedAt"`
	WeightGrams         *float64  `json:"weightGrams,omitempty"`
	HeightMm            *float64  `json:"heightMm,omitempty"`
	HeadCircumferenceMm *float64  `json:"headCircumferenceMm,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Reminder is the flat stored shape of a recurrence configuration. Exactly
// one of the mode column groups is expected to be populated; the reminder
// service converts rows into the recurrence package's tagged Rule and rejects
// rows that set none or several modes.
type Reminder struct {
	ID               string     `json:"id"`
	BabyID           string     `json:"babyId"`
	EntryType        string     `json:"entryType"`
	Enabled          bool       `json:"enabled"`
	IntervalMinutes  *int       `json:"intervalMinutes,omitempty"`
	ScheduledTimes   []string   `json:"scheduledTimes,omitempty"`
	BasedOnLastEntry bool       `json:"basedOnLastEntry"`
	AfterMinutes     *int       `json:"afterMinutes,omitempty"`
	LastFiredAt      *time.Time `json:"lastFiredAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type ScheduledReport struct {
	ID         string    `json:"id"`
	BabyID     string    `json:"babyId"`
	Frequency  string    `json:"frequency"`
	TimeOfDay  string    `json:"timeOfDay"`
	DayOfWeek  *int      `json:"dayOfWeek,omitempty"`
	DayOfMonth *int      `json:"dayOfMonth,omitempty"`
	NextSendAt time.Time `json:"nextSendAt"`
	CreatedAt  time.Time `json:"createdAt"`
}
