package models

import "time"

// Status describes where the user is in their education/career.
type Status string

const (
	StatusSchoolStudent  Status = "school_student"
	StatusCollegeStudent Status = "college_student"
	StatusPassout        Status = "passout"
)

// ValidStatus reports whether s is one of the questionnaire statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusSchoolStudent, StatusCollegeStudent, StatusPassout:
		return true
	}
	return false
}

// Profile holds the questionnaire answers collected before the chat starts.
// Level applies to school students, Year and Field to college students and
// passouts; all three are optional refinements.
type Profile struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Status   Status `json:"status"`
	Level    string `json:"level,omitempty"`
	Year     string `json:"year,omitempty"`
	Field    string `json:"field,omitempty"`
	Concerns string `json:"concerns,omitempty"`
}

// Session is one user's end-to-end counseling interaction.
// RoadmapData stays empty until the synthesizer runs; once set it is never
// regenerated by the normal flow.
type Session struct {
	ID          string    `json:"session_id"`
	Profile     Profile   `json:"profile"`
	ResumePath  string    `json:"resume_path,omitempty"`
	RoadmapData []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasResume reports whether a resume file has been attached to the session.
func (s *Session) HasResume() bool {
	return s != nil && s.ResumePath != ""
}

// HasRoadmap reports whether the single roadmap slot is already occupied.
func (s *Session) HasRoadmap() bool {
	return s != nil && len(s.RoadmapData) > 0
}
