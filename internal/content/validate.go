package content

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxSEOTitle       = 60
	MaxSEODescription = 160
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Draft is the input for creating a new post.
type Draft struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Slug             string     `json:"slug"`
	Content          string     `json:"content"`
	SEO              SEO        `json:"seo"`
	Author           Author     `json:"author"`
	Categories       []string   `json:"categories"`
	Keywords         []string   `json:"keywords"`
	FAQ              []FAQ      `json:"faq"`
	Media            []Media    `json:"media"`
	HeaderImage      *Media     `json:"headerImage,omitempty"`
	Status           Status     `json:"status"`
	ScheduledPublish *time.Time `json:"scheduledPublish,omitempty"`
	TableOfContents  []TOCEntry `json:"tableOfContents"`
}

// ValidSlug reports whether s is a non-empty URL-safe slug.
func ValidSlug(s string) bool { return slugPattern.MatchString(s) }

// Sanitize trims free-text fields and applies defaults in place.
func (d *Draft) Sanitize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Slug = strings.TrimSpace(d.Slug)
	d.SEO = SanitizeSEO(d.SEO)
	d.Keywords = trimAll(d.Keywords)
	if d.Status == "" {
		d.Status = StatusDraft
	}
	if d.HeaderImage != nil && d.HeaderImage.ResourceType == "" {
		d.HeaderImage.ResourceType = "image"
	}
}

// Validate checks a sanitized draft.
func (d *Draft) Validate() error {
	ve := &ValidationError{}
	if d.Title == "" {
		ve.add("title is required")
	}
	if d.Description == "" {
		ve.add("description is required")
	}
	if d.Slug == "" {
		ve.add("slug is required")
	} else if !ValidSlug(d.Slug) {
		ve.add("invalid slug format (must contain only lowercase letters, numbers, and hyphens)")
	}
	if strings.TrimSpace(d.Content) == "" {
		ve.add("content is required")
	}
	validateSEO(ve, d.SEO)
	if d.Author.Email == "" || d.Author.FirstName == "" || d.Author.LastName == "" {
		ve.add("complete author information (email, firstName, lastName) is required")
	}
	if len(trimAll(d.Categories)) == 0 {
		ve.add("at least one category is required")
	}
	if !d.Status.Valid() {
		ve.add("invalid status " + string(d.Status))
	}
	for _, m := range d.Media {
		validateMedia(ve, m)
	}
	return ve.orNil()
}

// SanitizeSEO trims the SEO block, drops blank focus keywords and defaults metaRobots.
func SanitizeSEO(s SEO) SEO {
	s.Title = strings.TrimSpace(s.Title)
	s.Description = strings.TrimSpace(s.Description)
	s.CanonicalURL = strings.TrimSpace(s.CanonicalURL)
	s.OGTitle = strings.TrimSpace(s.OGTitle)
	s.OGDescription = strings.TrimSpace(s.OGDescription)
	s.FocusKeywords = trimAll(s.FocusKeywords)
	if s.MetaRobots == "" {
		s.MetaRobots = DefaultMetaRobots
	}
	return s
}

// ValidateSEO checks a sanitized SEO block on its own.
func ValidateSEO(s SEO) error {
	ve := &ValidationError{}
	validateSEO(ve, s)
	return ve.orNil()
}

func validateSEO(ve *ValidationError, s SEO) {
	if s.Title == "" || utf8.RuneCountInString(s.Title) > MaxSEOTitle {
		ve.add("SEO title is required and must not exceed 60 characters")
	}
	if s.Description == "" || utf8.RuneCountInString(s.Description) > MaxSEODescription {
		ve.add("SEO description is required and must not exceed 160 characters")
	}
	ok := false
	for _, r := range MetaRobots {
		if s.MetaRobots == r {
			ok = true
			break
		}
	}
	if !ok {
		ve.add("invalid metaRobots value " + s.MetaRobots)
	}
}

func validateMedia(ve *ValidationError, m Media) {
	if m.URL == "" {
		ve.add("media url is required")
	}
	switch m.ResourceType {
	case "image", "video", "raw":
	default:
		ve.add("media resourceType must be image, video or raw")
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
