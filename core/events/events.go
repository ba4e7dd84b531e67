// Package events turns game news into patch records and per-game treatment summaries.
package events

import (
	"context"
	"time"

	"github.com/huangsam/patchpanel/core/classify"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
	"github.com/rs/zerolog"
)

// Result is the output of one extraction batch.
type Result struct {
	Summaries map[int64]schema.GamePatchSummary
	Records   []schema.PatchRecord
}

// Extractor fetches news for a batch of games and aggregates their patches.
type Extractor struct {
	news       contract.NewsSource
	classifier classify.Classifier
	now        func() time.Time
	log        zerolog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithClassifier replaces the keyword classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(e *Extractor) { e.classifier = c }
}

// WithClock sets the clock used to compute the window cutoff.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Extractor) { e.log = log }
}

// New creates an Extractor reading from news.
func New(news contract.NewsSource, opts ...Option) *Extractor {
	e := &Extractor{
		news:       news,
		classifier: classify.Default,
		now:        time.Now,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cutoff returns the oldest publication instant kept for a window.
func Cutoff(now time.Time, windowDays int) time.Time {
	if windowDays <= 0 {
		windowDays = schema.DefaultWindowDays
	}
	return now.UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)
}

// Extract classifies the news of every game published within windowDays.
// A game whose news cannot be fetched gets the zero summary; only cancellation aborts the batch.
func (e *Extractor) Extract(ctx context.Context, appIDs []int64, windowDays int) (Result, error) {
	cutoff := Cutoff(e.now(), windowDays)
	result := Result{
		Summaries: make(map[int64]schema.GamePatchSummary, len(appIDs)),
		Records:   []schema.PatchRecord{},
	}

	for _, appID := range appIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		items, err := e.news.FetchNews(ctx, appID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			e.log.Warn().Err(err).Int64("app_id", appID).Msg("news unavailable, treating as no activity")
			result.Summaries[appID] = Summarize(appID, nil)
			continue
		}

		records := ExtractItems(e.classifier, appID, items, cutoff)
		summary := Summarize(appID, records)
		result.Summaries[appID] = summary
		result.Records = append(result.Records, records...)

		e.log.Info().
			Int64("app_id", appID).
			Int("news", len(items)).
			Int("patches", summary.TotalPatches).
			Int("major", summary.MajorPatches).
			Msg("extracted patches")
	}
	return result, nil
}

// ExtractItems keeps the items published at or after cutoff that classify as patches, in input order.
func ExtractItems(c classify.Classifier, appID int64, items []schema.NewsItem, cutoff time.Time) []schema.PatchRecord {
	records := []schema.PatchRecord{}
	for _, item := range items {
		if item.PublishedAt.Before(cutoff) {
			continue
		}
		verdict, ok := c.Classify(item.Title, item.Body)
		if !ok {
			continue
		}
		records = append(records, schema.PatchRecord{
			AppID:           appID,
			Title:           item.Title,
			Body:            contract.TruncateBody(item.Body),
			PublishedAt:     item.PublishedAt.UTC(),
			SourceTimestamp: item.SourceTimestamp,
			IsMajor:         verdict.IsMajor,
			Reason:          verdict.Reason,
		})
	}
	return records
}

// Summarize aggregates the records of one game. No records yields zero counts and nil dates.
func Summarize(appID int64, records []schema.PatchRecord) schema.GamePatchSummary {
	summary := schema.GamePatchSummary{AppID: appID}
	for _, r := range records {
		summary.TotalPatches++
		published := r.PublishedAt
		if summary.LastPatchDate == nil || published.After(*summary.LastPatchDate) {
			summary.LastPatchDate = &published
		}
		if !r.IsMajor {
			summary.MinorPatches++
			continue
		}
		summary.MajorPatches++
		if summary.FirstMajorPatchDate == nil || published.Before(*summary.FirstMajorPatchDate) {
			summary.FirstMajorPatchDate = &published
		}
	}
	summary.HasMajorPatch = summary.MajorPatches > 0
	return summary
}
