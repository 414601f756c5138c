package dto

import "github.com/Artify24/student-managment-system/internal/models"

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	FirstName  string        `json:"firstName" validate:"required"`
	LastName   string        `json:"lastName" validate:"required"`
	Email      string        `json:"email" validate:"required,email"`
	Address    string        `json:"address"`
	Branch     models.Branch `json:"branch" validate:"required"`
	ImageURL   *string       `json:"imageUrl,omitempty"`
	Courses    []string      `json:"courses" validate:"dive,required"`
	Attendance int           `json:"attendance" validate:"gte=0"`
	FeesPaid   bool          `json:"feesPaid"`
	FeesAmount float64       `json:"feesAmount" validate:"gte=0"`
}

// UpdateStudentRequest holds a partial update; omitted fields stay unchanged.
// Courses, when present, replaces the student's enrollment.
type UpdateStudentRequest struct {
	FirstName  *string        `json:"firstName,omitempty"`
	LastName   *string        `json:"lastName,omitempty"`
	Email      *string        `json:"email,omitempty" validate:"omitempty,email"`
	Address    *string        `json:"address,omitempty"`
	Branch     *models.Branch `json:"branch,omitempty"`
	FeesPaid   *bool          `json:"feesPaid,omitempty"`
	FeesAmount *float64       `json:"feesAmount,omitempty" validate:"omitempty,gte=0"`
	ImageURL   *string        `json:"imageUrl,omitempty"`
	Courses    []string       `json:"courses,omitempty"`
}

// Patch converts the request into a model patch.
func (r UpdateStudentRequest) Patch() models.StudentPatch {
	return models.StudentPatch{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Address:    r.Address,
		Branch:     r.Branch,
		FeesPaid:   r.FeesPaid,
		FeesAmount: r.FeesAmount,
		ImageURL:   r.ImageURL,
	}
}
