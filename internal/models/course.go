package models

import "time"

// Course is a subject students enrol in; Name is its natural key.
type Course struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CourseSummary decorates a course with its roster size.
type CourseSummary struct {
	Course
	StudentCount int `db:"student_count" json:"studentCount"`
}

// Roster is the set of students enrolled in a course.
type Roster struct {
	CourseName string  `json:"courseName"`
	StudentIDs []int64 `json:"studentIds"`
}
