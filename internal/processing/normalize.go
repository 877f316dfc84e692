package processing

import (
	"fmt"

	"github.com/erictseng47/Stock/internal/models"
)

// Normalize maps a raw feed record into the canonical news item. The URL is
// always recomputed from the id, never taken from the source. The boolean is
// false when the record carries no positive numeric newsId and therefore
// cannot be keyed.
func Normalize(rec models.RawRecord, linkBase string) (models.NewsItem, bool) {
	id, ok := Classify(rec["newsId"]).Int64()
	if !ok || id <= 0 {
		return models.NewsItem{}, false
	}

	return models.NewsItem{
		ID:           id,
		URL:          fmt.Sprintf("%s/news/id/%d", linkBase, id),
		Title:        CleanText(Classify(rec["title"]).Plain()),
		Content:      CleanText(Classify(rec["content"]).Plain()),
		Summary:      CleanText(Classify(rec["summary"]).Plain()),
		Keyword:      Classify(rec["keyword"]).Coerce(),
		PublishAt:    Classify(rec["publishAt"]).Coerce(),
		CategoryName: CleanText(Classify(rec["categoryName"]).Plain()),
		CategoryID:   Classify(rec["categoryId"]).Plain(),
	}, true
}

// Transform normalizes a fetched page. Records without a usable id are
// dropped; the second return value counts them.
func Transform(raw []models.RawRecord, linkBase string) ([]models.NewsItem, int) {
	items := make([]models.NewsItem, 0, len(raw))
	skipped := 0
	for _, rec := range raw {
		item, ok := Normalize(rec, linkBase)
		if !ok {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped
}
