// Package leads stores enquiries submitted through the public admission form.
package leads

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusContacted Status = "contacted"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusContacted, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// EducationModes accepted on the form.
var EducationModes = []string{"Regular", "Distance", "Online", "Vocational"}

var (
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

var ErrNotFound = errors.New("lead not found")

// ValidationError lists the fields that failed validation, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range []string{"name", "email", "phone", "course", "educationMode", "status"} {
		if msg, ok := e.Fields[k]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

type Lead struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Email         string    `json:"email" bson:"email"`
	Phone         string    `json:"phone" bson:"phone"`
	Course        string    `json:"course" bson:"course"`
	EducationMode string    `json:"educationMode" bson:"educationMode"`
	Status        Status    `json:"status" bson:"status"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// Submission is the public form payload.
type Submission struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Course        string `json:"course"`
	EducationMode string `json:"educationMode"`
}

// normalize trims fields and lower-cases the email.
func (s Submission) normalize() Submission {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Phone = strings.TrimSpace(s.Phone)
	s.Course = strings.TrimSpace(s.Course)
	s.EducationMode = strings.TrimSpace(s.EducationMode)
	return s
}

func (s Submission) validate() error {
	fields := map[string]string{}
	if s.Name == "" {
		fields["name"] = "Name is required"
	}
	switch {
	case s.Email == "":
		fields["email"] = "Email is required"
	case !emailPattern.MatchString(s.Email):
		fields["email"] = "Please enter a valid email"
	}
	switch {
	case s.Phone == "":
		fields["phone"] = "Phone number is required"
	case !phonePattern.MatchString(s.Phone):
		fields["phone"] = "Please enter a valid 10-digit phone number"
	}
	if s.Course == "" {
		fields["course"] = "Course is required"
	}
	valid := false
	for _, m := range EducationModes {
		if s.EducationMode == m {
			valid = true
			break
		}
	}
	if !valid {
		fields["educationMode"] = "Education mode must be one of " + strings.Join(EducationModes, ", ")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

type Pagination struct {
	Total int64 `json:"total"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
	Page  int   `json:"page"`
}

// Page is one page of leads, newest first.
type Page struct {
	Leads      []Lead     `json:"leads"`
	Pagination Pagination `json:"pagination"`
}
