package tutor

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/catalog"
)

type Subject struct {
	CourseName string `json:"course_name"`
}

type Feedback struct {
	ID        int       `json:"id"`
	TutorID   int       `json:"tutor_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Tutor struct {
	ID       int           `json:"id"`
	Name     string        `json:"name"`
	Phone    string        `json:"phone"`
	Degree   catalog.Track `json:"degree"`
	Subjects []Subject     `json:"subjects"`
	Feedback []Feedback    `json:"feedback"`

	// derived from Feedback, see Derive
	AverageRating *float64 `json:"average_rating"`
	FeedbackCount int      `json:"feedback_count"`
}

// Teaches reports whether one of the tutor's subjects contains course.
func (t Tutor) Teaches(course string) bool {
	for _, s := range t.Subjects {
		if strings.Contains(s.CourseName, course) {
			return true
		}
	}
	return false
}

func (t Tutor) SubjectNames() []string {
	res := make([]string, 0, len(t.Subjects))
	for _, s := range t.Subjects {
		res = append(res, s.CourseName)
	}
	return res
}

// Page is the visible part of a tutor list.
type Page struct {
	Tutors  []Tutor `json:"tutors"`
	Total   int     `json:"total"`
	HasMore bool    `json:"has_more"`
}

// NewFeedback contains what a student submits about a tutor.
type NewFeedback struct {
	Rating  int    `json:"rating" validate:"rating"`
	Comment string `json:"comment" validate:"commentlen,nourl"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.Comment = core.CleanString(nf.Comment)
	return validate.Struct(nf)
}

// NewTutor contains information needed to list a new Tutor.
type NewTutor struct {
	Name     string   `json:"name" validate:"required"`
	Phone    string   `json:"phone" validate:"required,ilphone"`
	Degree   string   `json:"degree" validate:"required,oneof=cs ee"`
	Subjects []string `json:"subjects" validate:"required"`
}

func (nt *NewTutor) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Phone = NormalizePhone(nt.Phone)
	nt.Degree = core.CleanString(nt.Degree, true /* lower */)
	nt.Subjects = cleanSubjects(nt.Subjects)
	return validate.Struct(nt)
}

// TutorRequest is a "become a tutor" request waiting for an admin.
type TutorRequest struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Phone     string        `json:"phone"`
	Degree    catalog.Track `json:"degree"`
	Subjects  []string      `json:"subjects"`
	Email     string        `json:"email"`
	CreatedAt time.Time     `json:"created_at"` // UTC
}

type NewTutorRequest struct {
	Name     string   `json:"name" validate:"required"`
	Phone    string   `json:"phone" validate:"required,ilphone"`
	Degree   string   `json:"degree" validate:"required,oneof=cs ee"`
	Subjects []string `json:"subjects" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
}

func (nr *NewTutorRequest) Validate(validate *validator.Validate) error {
	nr.Name = core.CleanString(nr.Name)
	nr.Phone = NormalizePhone(nr.Phone)
	nr.Degree = core.CleanString(nr.Degree, true /* lower */)
	nr.Email = core.CleanString(nr.Email, true /* lower */)
	nr.Subjects = cleanSubjects(nr.Subjects)
	return validate.Struct(nr)
}

func cleanSubjects(subjects []string) []string {
	var res []string
	for _, s := range subjects {
		if s = core.CleanString(s); s != "" {
			res = append(res, s)
		}
	}
	return res
}

// NormalizePhone drops dashes and spaces from a phone number.
func NormalizePhone(phone string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(phone))
}
