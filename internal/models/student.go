package models

import "time"

// Branch is the campus a student is enrolled at.
type Branch string

// Supported campus branches.
const (
	BranchThane    Branch = "THANE"
	BranchNerul    Branch = "NERUL"
	BranchBorivali Branch = "BORIVALI"
	BranchDadar    Branch = "DADAR"
)

// Branches lists every valid branch in display order.
var Branches = []Branch{BranchThane, BranchNerul, BranchBorivali, BranchDadar}

// Valid reports whether the branch is one of the supported campuses.
func (b Branch) Valid() bool {
	for _, candidate := range Branches {
		if b == candidate {
			return true
		}
	}
	return false
}

// Student represents a learner registered at the institute.
// Attendance and Absent are cumulative counters maintained by reconciliation.
type Student struct {
	ID         int64     `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"firstName"`
	LastName   string    `db:"last_name" json:"lastName"`
	Email      string    `db:"email" json:"email"`
	Address    string    `db:"address" json:"address"`
	Branch     Branch    `db:"branch" json:"branch"`
	Attendance int       `db:"attendance" json:"attendance"`
	Absent     int       `db:"absent" json:"absent"`
	FeesPaid   bool      `db:"fees_paid" json:"feesPaid"`
	FeesAmount float64   `db:"fees_amount" json:"feesAmount"`
	ImageURL   *string   `db:"image_url" json:"imageUrl,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// StudentDetail contains a student with enrolled course names.
type StudentDetail struct {
	Student
	Courses []Course `json:"courses"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Branch    Branch
	Course    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentPatch carries optional field updates; nil means unchanged.
type StudentPatch struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Address    *string
	Branch     *Branch
	FeesPaid   *bool
	FeesAmount *float64
	ImageURL   *string
}
