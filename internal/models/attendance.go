package models

import "time"

// AttendanceStatus is the classification of a student within a session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusAbsent
}

// RejectReason explains why a supplied present id was not applied.
type RejectReason string

const (
	RejectInvalidID      RejectReason = "invalid_id"
	RejectUnknownStudent RejectReason = "unknown_student"
	RejectNotEnrolled    RejectReason = "not_enrolled"
)

// RejectedID reports a supplied identifier that reconciliation dropped.
type RejectedID struct {
	Value  string       `json:"value"`
	Reason RejectReason `json:"reason"`
}

// AttendanceRecord is one flattened (session, student) classification row.
type AttendanceRecord struct {
	SessionID   int64            `db:"session_id" json:"sessionId"`
	CourseName  string           `db:"course_name" json:"courseName"`
	Date        time.Time        `db:"date" json:"date"`
	Time        string           `db:"time" json:"time"`
	StudentID   int64            `db:"student_id" json:"studentId"`
	StudentName string           `db:"student_name" json:"studentName"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Branch      Branch           `db:"branch" json:"branch"`
}

// AttendanceRecordFilter narrows attendance report rows.
type AttendanceRecordFilter struct {
	CourseName string
	Branch     Branch
	Status     AttendanceStatus
	Search     string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// AttendanceBreakdown aggregates present/absent counts for a group.
type AttendanceBreakdown struct {
	Key     string `json:"key"`
	Total   int    `json:"total"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
	Rate    int    `json:"rate"`
}

// AttendanceStats summarises a set of attendance records.
type AttendanceStats struct {
	TotalSessions     int                   `json:"totalSessions"`
	TotalRecords      int                   `json:"totalRecords"`
	TotalPresent      int                   `json:"totalPresent"`
	TotalAbsent       int                   `json:"totalAbsent"`
	UniqueStudents    int                   `json:"uniqueStudents"`
	AverageAttendance int                   `json:"averageAttendance"`
	ByCourse          []AttendanceBreakdown `json:"byCourse"`
	ByBranch          []AttendanceBreakdown `json:"byBranch"`
}
