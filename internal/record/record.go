// Package record defines the Content Record every collector produces and the
// backend stores.
package record

import (
	"errors"
	"time"
)

var ErrMissingSourceOrType = errors.New("source and type are required")

const (
	TypeTweet        = "tweet"
	TypeVideo        = "video"
	TypeNewsArticle  = "news_article"
	TypeWebContent   = "web_content"
	TypeRedditPost   = "reddit_post"
	TypePDFDocument  = "pdf_document"
	TypeWordDocument = "word_document"
	TypeTextDocument = "text_document"
	TypeImageFile    = "image_file"
	TypeVideoFile    = "video_file"
	TypeUnknownFile  = "unknown_file"
	TypeFile         = "file"
)

const (
	StatusPending = "pending"
	StatusChecked = "checked"
)

// Record is the normalized unit of collected content. Type is an open set;
// only Source and Type are ever validated.
type Record struct {
	Source       string         `json:"source"`
	Type         string         `json:"type"`
	ContentText  string         `json:"content_text"`
	Metadata     map[string]any `json:"metadata"`
	BackendDocID string         `json:"backend_doc_id,omitempty"`
}

func New(source, recordType, text string) *Record {
	return &Record{Source: source, Type: recordType, ContentText: text, Metadata: map[string]any{}}
}

func (r *Record) Validate() error {
	if r.Source == "" || r.Type == "" {
		return ErrMissingSourceOrType
	}
	return nil
}

// Set stores a metadata value, allocating the map on first use.
func (r *Record) Set(key string, value any) *Record {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata[key] = value
	return r
}

// MetaString returns metadata[key] when it is a non-empty string.
func (r *Record) MetaString(key string) string {
	if r.Metadata == nil {
		return ""
	}
	s, _ := r.Metadata[key].(string)
	return s
}

// Timestamp is the collector-side timestamp format stored in metadata.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Platform maps a record to the platform name used in reports.
func Platform(r *Record) string {
	switch r.Type {
	case TypeVideo:
		return "youtube"
	case TypeTweet:
		return "twitter"
	case TypeRedditPost:
		return "reddit"
	case TypeNewsArticle:
		if d := r.MetaString("source_domain"); d != "" {
			return d
		}
		return "news"
	case TypePDFDocument, TypeWordDocument, TypeTextDocument, TypeImageFile, TypeVideoFile, TypeUnknownFile, TypeFile:
		return "local"
	default:
		return "unknown"
	}
}

// Preview returns at most n runes of text.
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
