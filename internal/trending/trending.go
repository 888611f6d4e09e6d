// Package trending keeps the small ranked list of featured posts shown on the home page.
package trending

import (
	"errors"
	"fmt"
	"time"

	"github.com/trackadmission/go-services/internal/content"
)

const (
	// Limit is the maximum number of live trending entries.
	Limit       = 4
	MinPosition = 0
	MaxPosition = 3
)

var ErrNotFound = errors.New("trending entry not found")

// ValidationError rejects a malformed slot request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Entry assigns a post to a position slot. Positions are not unique.
type Entry struct {
	ID        string    `json:"id" bson:"_id"`
	BlogID    string    `json:"blogId" bson:"blogId"`
	Position  int       `json:"position" bson:"position"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// View is an entry joined with the referenced post. Blog is nil when the post is gone.
type View struct {
	Entry
	Blog *content.Summary `json:"blog"`
}

func validate(blogID string, position int) error {
	if blogID == "" {
		return &ValidationError{Field: "blogId", Reason: "required"}
	}
	if position < MinPosition || position > MaxPosition {
		return &ValidationError{Field: "position", Reason: fmt.Sprintf("must be a number between %d and %d", MinPosition, MaxPosition)}
	}
	return nil
}
