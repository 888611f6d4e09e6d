package content

import (
	"regexp"
	"strings"
)

const wordsPerMinute = 200

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// PlainText strips markup from an HTML body.
func PlainText(body string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(body, " "))
}

// Derived are the fields computed from the body and SEO block on every write.
type Derived struct {
	PlainText   string
	WordCount   int
	ReadingTime int
	SEOAnalysis SEOAnalysis
}

// Derive computes plain text, word count, reading time in minutes and the SEO flags.
func Derive(body string, seo SEO, media []Media) Derived {
	plain := PlainText(body)
	words := len(strings.Fields(plain))
	hasImages := false
	for _, m := range media {
		if m.ResourceType == "image" {
			hasImages = true
			break
		}
	}
	return Derived{
		PlainText:   plain,
		WordCount:   words,
		ReadingTime: (words + wordsPerMinute - 1) / wordsPerMinute,
		SEOAnalysis: SEOAnalysis{
			TitleLength:          len([]rune(seo.Title)),
			DescriptionLength:    len([]rune(seo.Description)),
			ContentLength:        len([]rune(plain)),
			HasImages:            hasImages,
			HasLinks:             strings.Contains(body, "href="),
			KeywordInTitle:       containsAnyFold(seo.Title, seo.FocusKeywords),
			KeywordInDescription: containsAnyFold(seo.Description, seo.FocusKeywords),
			HasMetaDescription:   seo.Description != "",
			HasFocusKeyword:      len(seo.FocusKeywords) > 0,
		},
	}
}

func containsAnyFold(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
