package models

import "time"

// Session is one scheduled meeting of a course. Status is true while the
// session is active and flips to false once attendance has been reconciled.
type Session struct {
	ID         int64     `db:"id" json:"id"`
	CourseName string    `db:"course_name" json:"courseName"`
	Date       time.Time `db:"date" json:"date"`
	Time       string    `db:"time" json:"time"`
	Status     bool      `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Active reports whether attendance has not yet been reconciled.
func (s Session) Active() bool {
	return s.Status
}

// SessionDetail is a session with its present and absent students resolved.
type SessionDetail struct {
	Session
	Present []Student `json:"present"`
	Absent  []Student `json:"absent"`
}

// SessionFilter scopes session listing.
type SessionFilter struct {
	CourseName string
	Status     *bool
	DateFrom   *time.Time
	DateTo     *time.Time
}
