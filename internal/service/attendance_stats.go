package service

import (
	"math"
	"sort"

	"github.com/Artify24/student-managment-system/internal/models"
)

// SummariseAttendance aggregates flattened attendance records. Rates are
// rounded percentages of present over total records in the group.
func SummariseAttendance(records []models.AttendanceRecord) models.AttendanceStats {
	stats := models.AttendanceStats{
		TotalRecords: len(records),
		ByCourse:     []models.AttendanceBreakdown{},
		ByBranch:     []models.AttendanceBreakdown{},
	}
	sessions := make(map[int64]struct{})
	students := make(map[int64]struct{})
	byCourse := make(map[string]*models.AttendanceBreakdown)
	byBranch := make(map[string]*models.AttendanceBreakdown)

	for _, record := range records {
		sessions[record.SessionID] = struct{}{}
		students[record.StudentID] = struct{}{}
		present := record.Status == models.AttendanceStatusPresent
		if present {
			stats.TotalPresent++
		} else {
			stats.TotalAbsent++
		}
		tally(byCourse, record.CourseName, present)
		tally(byBranch, string(record.Branch), present)
	}

	stats.TotalSessions = len(sessions)
	stats.UniqueStudents = len(students)
	stats.AverageAttendance = percent(stats.TotalPresent, stats.TotalRecords)
	stats.ByCourse = flattenBreakdown(byCourse)
	stats.ByBranch = flattenBreakdown(byBranch)
	return stats
}

func tally(groups map[string]*models.AttendanceBreakdown, key string, present bool) {
	group, ok := groups[key]
	if !ok {
		group = &models.AttendanceBreakdown{Key: key}
		groups[key] = group
	}
	group.Total++
	if present {
		group.Present++
	} else {
		group.Absent++
	}
}

func flattenBreakdown(groups map[string]*models.AttendanceBreakdown) []models.AttendanceBreakdown {
	out := make([]models.AttendanceBreakdown, 0, len(groups))
	for _, group := range groups {
		group.Rate = percent(group.Present, group.Total)
		out = append(out, *group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
