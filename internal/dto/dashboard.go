package dto

import "time"

// DashboardResponse captures the aggregated admin dashboard payload.
type DashboardResponse struct {
	TotalStudents   int            `json:"totalStudents"`
	TotalCourses    int            `json:"totalCourses"`
	TotalSessions   int            `json:"totalSessions"`
	ActiveSessions  int            `json:"activeSessions"`
	TodaySessions   int            `json:"todaySessions"`
	AttendanceRate  float64        `json:"attendanceRate"`
	FeesOutstanding int            `json:"feesOutstanding"`
	ByBranch        []BranchCount  `json:"byBranch"`
	LowAttendance   []StudentRatio `json:"lowAttendance"`
	GeneratedAt     time.Time      `json:"generatedAt"`
}

// BranchCount is the number of students per branch.
type BranchCount struct {
	Branch string `db:"branch" json:"branch"`
	Count  int    `db:"count" json:"count"`
}

// StudentRatio highlights a student's cumulative attendance rate.
type StudentRatio struct {
	StudentID int64   `db:"id" json:"studentId"`
	Name      string  `db:"name" json:"name"`
	Present   int     `db:"attendance" json:"present"`
	Absent    int     `db:"absent" json:"absent"`
	Rate      float64 `db:"-" json:"rate"`
}
