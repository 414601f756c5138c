package dto

// CreateSessionRequest is the POST /session payload.
type CreateSessionRequest struct {
	CourseName string `json:"courseName"`
	Time       string `json:"time"`
}

// CreateCourseRequest is the POST /courses payload.
type CreateCourseRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}
