package models

import "encoding/json"

// RawRecord is a single feed item exactly as returned by the newslist API,
// before any transformation. Fields may be absent.
type RawRecord map[string]json.RawMessage

// NewsItem is the canonical record persisted by the pipeline.
type NewsItem struct {
	ID           int64  `json:"newsId"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Summary      string `json:"summary"`
	Keyword      string `json:"keyword"`
	PublishAt    string `json:"publishAt"`
	CategoryName string `json:"categoryName"`
	CategoryID   string `json:"categoryId"`
}

// Columns is the fixed column order shared by the news relation and the CSV log.
var Columns = []string{
	"newsId", "url", "title", "content", "summary",
	"keyword", "publishAt", "categoryName", "categoryId",
}
