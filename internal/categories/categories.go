// Package categories manages the admin-curated list of post categories.
package categories

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound  = errors.New("category not found")
	ErrDuplicate = errors.New("category name or slug already exists")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Metadata drives how the dashboard renders a category. Lists are ordered
// by DisplayOrder; categories without one come first.
type Metadata struct {
	Icon         string `json:"icon,omitempty" bson:"icon,omitempty"`
	Color        string `json:"color,omitempty" bson:"color,omitempty"`
	DisplayOrder *int   `json:"displayOrder,omitempty" bson:"displayOrder,omitempty"`
}

type Category struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Slug        string    `json:"slug" bson:"slug"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Metadata    Metadata  `json:"metadata" bson:"metadata"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Input is the payload for creating or replacing a category.
type Input struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Metadata    Metadata `json:"metadata"`
}

// ValidationError lists the fields that failed validation, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range []string{"name", "slug", "description"} {
		if msg, ok := e.Fields[k]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

func (in Input) normalize() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func (in Input) validate() error {
	fields := map[string]string{}
	switch n := utf8.RuneCountInString(in.Name); {
	case n == 0:
		fields["name"] = "Name is required"
	case n < 3 || n > 50:
		fields["name"] = "Name must be between 3 and 50 characters"
	}
	switch {
	case in.Slug == "":
		fields["slug"] = "Slug is required"
	case !slugPattern.MatchString(in.Slug):
		fields["slug"] = "Slug must contain only lowercase letters, numbers, and hyphens"
	}
	if utf8.RuneCountInString(in.Description) > 500 {
		fields["description"] = "Description must be at most 500 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
