package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Artify24/student-managment-system/internal/models"
)

func sampleAttendanceRecords() []models.AttendanceRecord {
	return []models.AttendanceRecord{
		{SessionID: 7, CourseName: "Physics", StudentID: 1, StudentName: "Asha Rao", Status: models.AttendanceStatusPresent, Branch: models.BranchThane},
		{SessionID: 7, CourseName: "Physics", StudentID: 2, StudentName: "Ravi Shah", Status: models.AttendanceStatusAbsent, Branch: models.BranchNerul},
		{SessionID: 7, CourseName: "Physics", StudentID: 3, StudentName: "Meera Iyer", Status: models.AttendanceStatusPresent, Branch: models.BranchThane},
		{SessionID: 8, CourseName: "Maths", StudentID: 1, StudentName: "Asha Rao", Status: models.AttendanceStatusAbsent, Branch: models.BranchThane},
	}
}

func TestSummariseAttendance(t *testing.T) {
	stats := SummariseAttendance(sampleAttendanceRecords())

	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 4, stats.TotalRecords)
	assert.Equal(t, 2, stats.TotalPresent)
	assert.Equal(t, 2, stats.TotalAbsent)
	assert.Equal(t, 3, stats.UniqueStudents)
	assert.Equal(t, 50, stats.AverageAttendance)

	assert.Equal(t, []models.AttendanceBreakdown{
		{Key: "Maths", Total: 1, Present: 0, Absent: 1, Rate: 0},
		{Key: "Physics", Total: 3, Present: 2, Absent: 1, Rate: 67},
	}, stats.ByCourse)
	assert.Equal(t, []models.AttendanceBreakdown{
		{Key: "NERUL", Total: 1, Present: 0, Absent: 1, Rate: 0},
		{Key: "THANE", Total: 3, Present: 2, Absent: 1, Rate: 67},
	}, stats.ByBranch)
}

func TestSummariseAttendanceEmpty(t *testing.T) {
	stats := SummariseAttendance(nil)
	assert.Equal(t, 0, stats.AverageAttendance)
	assert.NotNil(t, stats.ByCourse)
	assert.Empty(t, stats.ByBranch)
}
