package content

import "time"

// Status is the publishing workflow state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
	StatusScheduled Status = "scheduled"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusPublished, StatusScheduled, StatusArchived:
		return true
	}
	return false
}

// MetaRobots values accepted in the SEO block.
var MetaRobots = []string{"index,follow", "noindex,follow", "index,nofollow", "noindex,nofollow"}

const DefaultMetaRobots = "index,follow"

type Author struct {
	Email     string `json:"email" bson:"email"`
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
}

type SEO struct {
	Title            string   `json:"title" bson:"title"`
	Description      string   `json:"description" bson:"description"`
	CanonicalURL     string   `json:"canonicalUrl,omitempty" bson:"canonicalUrl,omitempty"`
	OGTitle          string   `json:"ogTitle,omitempty" bson:"ogTitle,omitempty"`
	OGDescription    string   `json:"ogDescription,omitempty" bson:"ogDescription,omitempty"`
	OGImage          string   `json:"ogImage,omitempty" bson:"ogImage,omitempty"`
	FocusKeywords    []string `json:"focusKeywords" bson:"focusKeywords"`
	ReadabilityScore float64  `json:"readabilityScore" bson:"readabilityScore"`
	MetaRobots       string   `json:"metaRobots" bson:"metaRobots"`
}

// Media is an uploaded asset referenced from a post.
type Media struct {
	URL          string    `json:"url" bson:"url"`
	PublicID     string    `json:"publicId,omitempty" bson:"publicId,omitempty"`
	Format       string    `json:"format,omitempty" bson:"format,omitempty"`
	ResourceType string    `json:"resourceType" bson:"resourceType"`
	Alt          string    `json:"alt" bson:"alt"`
	Caption      string    `json:"caption,omitempty" bson:"caption,omitempty"`
	Width        int       `json:"width,omitempty" bson:"width,omitempty"`
	Height       int       `json:"height,omitempty" bson:"height,omitempty"`
	Size         int64     `json:"size,omitempty" bson:"size,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

type FAQ struct {
	Question string `json:"question" bson:"question"`
	Answer   string `json:"answer" bson:"answer"`
}

type TOCEntry struct {
	Level int    `json:"level" bson:"level"`
	Text  string `json:"text" bson:"text"`
	ID    string `json:"id" bson:"id"`
}

// SEOAnalysis holds flags derived from the post body and SEO block on write.
type SEOAnalysis struct {
	KeywordDensity          float64 `json:"keywordDensity" bson:"keywordDensity"`
	TitleLength             int     `json:"titleLength" bson:"titleLength"`
	DescriptionLength       int     `json:"descriptionLength" bson:"descriptionLength"`
	ContentLength           int     `json:"contentLength" bson:"contentLength"`
	Readability             float64 `json:"readability" bson:"readability"`
	HasImages               bool    `json:"hasImages" bson:"hasImages"`
	HasLinks                bool    `json:"hasLinks" bson:"hasLinks"`
	KeywordInTitle          bool    `json:"keywordInTitle" bson:"keywordInTitle"`
	KeywordInDescription    bool    `json:"keywordInDescription" bson:"keywordInDescription"`
	KeywordInFirstParagraph bool    `json:"keywordInFirstParagraph" bson:"keywordInFirstParagraph"`
	KeywordInHeadings       bool    `json:"keywordInHeadings" bson:"keywordInHeadings"`
	HasMetaDescription      bool    `json:"hasMetaDescription" bson:"hasMetaDescription"`
	HasFocusKeyword         bool    `json:"hasFocusKeyword" bson:"hasFocusKeyword"`
}

// DiffOp is one text-diff operation. Versions currently carry an empty list.
type DiffOp struct {
	Operation string `json:"operation" bson:"operation"` // insert|delete|equal
	Text      string `json:"text" bson:"text"`
}

// Version is an immutable snapshot in a document's version log.
type Version struct {
	Version   int       `json:"version" bson:"version"`
	Content   string    `json:"content" bson:"content"`
	SEO       SEO       `json:"seo" bson:"seo"`
	Hash      string    `json:"hash" bson:"hash"`
	Author    Author    `json:"author" bson:"author"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Changelog string    `json:"changelog" bson:"changelog"`
	Diffs     []DiffOp  `json:"diffs" bson:"diffs"`
}

// VersioningPolicy is the retention policy declared on each document.
// AutoPurgeAfter is in days.
type VersioningPolicy struct {
	MaxVersions      int  `json:"maxVersions" bson:"maxVersions"`
	KeepMajorChanges bool `json:"keepMajorChanges" bson:"keepMajorChanges"`
	AutoPurgeAfter   int  `json:"autoPurgeAfter" bson:"autoPurgeAfter"`
}

func DefaultVersioningPolicy() VersioningPolicy {
	return VersioningPolicy{MaxVersions: 30, KeepMajorChanges: true, AutoPurgeAfter: 90}
}

// Document is a blog post together with its version log.
type Document struct {
	ID               string           `json:"id" bson:"_id"`
	Title            string           `json:"title" bson:"title"`
	Description      string           `json:"description" bson:"description"`
	Slug             string           `json:"slug" bson:"slug"`
	Content          string           `json:"content" bson:"content"`
	PlainText        string           `json:"plainText" bson:"plainText"`
	WordCount        int              `json:"wordCount" bson:"wordCount"`
	ReadingTime      int              `json:"readingTime" bson:"readingTime"`
	FAQ              []FAQ            `json:"faq" bson:"faq"`
	SEO              SEO              `json:"seo" bson:"seo"`
	Media            []Media          `json:"media" bson:"media"`
	HeaderImage      *Media           `json:"headerImage,omitempty" bson:"headerImage,omitempty"`
	Status           Status           `json:"status" bson:"status"`
	ScheduledPublish *time.Time       `json:"scheduledPublish,omitempty" bson:"scheduledPublish,omitempty"`
	Author           Author           `json:"author" bson:"author"`
	Categories       []string         `json:"categories" bson:"categories"`
	Score            int              `json:"score" bson:"score"`
	IsDeleted        bool             `json:"isDeleted" bson:"isDeleted"`
	Keywords         []string         `json:"keywords" bson:"keywords"`
	CurrentVersion   int              `json:"currentVersion" bson:"currentVersion"`
	Versions         []Version        `json:"versions" bson:"versions"`
	VersioningPolicy VersioningPolicy `json:"versioningPolicy" bson:"versioningPolicy"`
	SEOAnalysis      SEOAnalysis      `json:"seoAnalysis" bson:"seoAnalysis"`
	TableOfContents  []TOCEntry       `json:"tableOfContents" bson:"tableOfContents"`
	CreatedAt        time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// CurrentEntry returns the version entry matching CurrentVersion, or nil.
func (d *Document) CurrentEntry() *Version {
	for i := len(d.Versions) - 1; i >= 0; i-- {
		if d.Versions[i].Version == d.CurrentVersion {
			return &d.Versions[i]
		}
	}
	return nil
}

// History is the read-only projection returned by the version history endpoint.
type History struct {
	ID             string    `json:"id" bson:"_id"`
	CurrentVersion int       `json:"currentVersion" bson:"currentVersion"`
	Versions       []Version `json:"versions" bson:"versions"`
}

// LiveFields are the document fields replaced together with a version append.
type LiveFields struct {
	Content     string
	SEO         SEO
	PlainText   string
	WordCount   int
	ReadingTime int
	SEOAnalysis SEOAnalysis
	UpdatedAt   time.Time
}

// MetaUpdate carries the non-versioned fields a writer may change in place.
// Nil fields are left untouched.
type MetaUpdate struct {
	Title            *string     `json:"title,omitempty"`
	Description      *string     `json:"description,omitempty"`
	Status           *Status     `json:"status,omitempty"`
	Categories       *[]string   `json:"categories,omitempty"`
	Keywords         *[]string   `json:"keywords,omitempty"`
	FAQ              *[]FAQ      `json:"faq,omitempty"`
	HeaderImage      *Media      `json:"headerImage,omitempty"`
	Media            *[]Media    `json:"media,omitempty"`
	TableOfContents  *[]TOCEntry `json:"tableOfContents,omitempty"`
	ScheduledPublish *time.Time  `json:"scheduledPublish,omitempty"`
	Score            *int        `json:"score,omitempty"`
}

// Empty reports whether u changes nothing.
func (u MetaUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.Categories == nil &&
		u.Keywords == nil && u.FAQ == nil && u.HeaderImage == nil && u.Media == nil &&
		u.TableOfContents == nil && u.ScheduledPublish == nil && u.Score == nil
}

// Apply copies the set fields of u onto d.
func (u MetaUpdate) Apply(d *Document) {
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Status != nil {
		d.Status = *u.Status
	}
	if u.Categories != nil {
		d.Categories = *u.Categories
	}
	if u.Keywords != nil {
		d.Keywords = *u.Keywords
	}
	if u.FAQ != nil {
		d.FAQ = *u.FAQ
	}
	if u.HeaderImage != nil {
		d.HeaderImage = u.HeaderImage
	}
	if u.Media != nil {
		d.Media = *u.Media
	}
	if u.TableOfContents != nil {
		d.TableOfContents = *u.TableOfContents
	}
	if u.ScheduledPublish != nil {
		d.ScheduledPublish = u.ScheduledPublish
	}
	if u.Score != nil {
		d.Score = *u.Score
	}
}

// SortFields lists the fields a listing may be ordered by.
var SortFields = map[string]bool{
	"updatedAt": true, "createdAt": true, "title": true, "score": true,
	"wordCount": true, "readingTime": true, "status": true,
}

// ListQuery selects a page of posts. Soft-deleted posts are always excluded.
type ListQuery struct {
	Page          int
	Limit         int
	Search        string // case-insensitive match on title or focus keywords
	Status        Status // empty means any
	Category      string // case-insensitive whole-value match, hyphens read as spaces
	AuthorEmail   string
	PublishedOnly bool
	SortField     string
	SortAsc       bool
}

// MaxPage bounds the skip computed from page and limit.
const MaxPage = 10000

// Normalize fills defaults and clamps paging values.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = 6
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if !SortFields[q.SortField] {
		q.SortField = "updatedAt"
	}
	return q
}

// Skip is the number of rows before the requested page.
func (q ListQuery) Skip() int { return (q.Page - 1) * q.Limit }

type Pagination struct {
	Total       int64 `json:"total"`
	Pages       int   `json:"pages"`
	Current     int   `json:"current"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

func NewPagination(total int64, page, limit int) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Total:       total,
		Pages:       pages,
		Current:     page,
		Limit:       limit,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

// SearchHit is the trimmed projection returned by public search.
type SearchHit struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Slug        string    `json:"slug" bson:"slug"`
	HeaderImage *Media    `json:"headerImage,omitempty" bson:"headerImage,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
	Author      Author    `json:"author" bson:"author"`
}

// SitemapEntry is one published post listed in sitemap.xml.
type SitemapEntry struct {
	Slug      string    `bson:"slug"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Summary is the reference embedded in trending listings.
type Summary struct {
	ID          string `json:"id" bson:"_id"`
	Title       string `json:"title" bson:"title"`
	Slug        string `json:"slug" bson:"slug"`
	HeaderImage *Media `json:"headerImage,omitempty" bson:"headerImage,omitempty"`
}
