package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/patchpanel/core/classify"
	"github.com/huangsam/patchpanel/core/compare"
	"github.com/huangsam/patchpanel/core/events"
	"github.com/huangsam/patchpanel/core/panel"
	"github.com/huangsam/patchpanel/core/series"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/internal/metrics"
	"github.com/huangsam/patchpanel/schema"
	"github.com/rs/zerolog"
)

// Pipeline runs extraction, normalization and panel construction over one batch of games.
// Games are processed one at a time so every fetch observes its client's politeness interval.
type Pipeline struct {
	sources    contract.Sources
	classifier classify.Classifier
	extractor  *events.Extractor
	metrics    *metrics.Recorder
	log        zerolog.Logger
	now        func() time.Time
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithRecorder sets the metrics recorder.
func WithRecorder(rec *metrics.Recorder) PipelineOption {
	return func(p *Pipeline) { p.metrics = rec }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = log }
}

// WithClock sets the clock used for windows and report timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithClassifier replaces the keyword classifier used by extraction.
func WithClassifier(c classify.Classifier) PipelineOption {
	return func(p *Pipeline) { p.classifier = c }
}

// NewPipeline creates a Pipeline over sources.
func NewPipeline(sources contract.Sources, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		sources:    sources,
		classifier: classify.Default,
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.extractor = events.New(sources.News,
		events.WithClock(p.now),
		events.WithLogger(p.log),
		events.WithClassifier(p.classifier),
	)
	return p
}

// Patches extracts the patch report for appIDs.
func (p *Pipeline) Patches(ctx context.Context, appIDs []int64, windowDays int) (schema.PatchReport, events.Result, error) {
	result, err := p.extractor.Extract(ctx, appIDs, windowDays)
	if err != nil {
		return schema.PatchReport{}, result, err
	}
	return newPatchReport(p.now(), windowDays, result), result, nil
}

// Panel extracts events, gathers each game's series and metadata, and builds the panel.
func (p *Pipeline) Panel(ctx context.Context, appIDs []int64, windowDays int) (schema.PanelReport, events.Result, error) {
	result, err := p.extractor.Extract(ctx, appIDs, windowDays)
	if err != nil {
		return schema.PanelReport{}, result, err
	}

	games := make([]schema.GameInput, 0, len(appIDs))
	for _, appID := range appIDs {
		game, err := p.gatherGame(ctx, appID, result.Summaries[appID])
		if err != nil {
			return schema.PanelReport{}, result, err
		}
		games = append(games, game)
	}

	rows := panel.Build(games)
	report := schema.PanelReport{
		GeneratedAt: p.now().UTC(),
		Games:       len(games),
		Rows:        rows,
	}
	for _, game := range games {
		_, treatment, _ := panel.Anchor(game)
		if treatment == 1 {
			report.Treated++
		} else {
			report.Control++
		}
		p.metrics.ObservePanelGame(schema.GroupOf(treatment))
	}
	return report, result, nil
}

// gatherGame collects the builder input of one game. Unavailable data becomes absent fields;
// only cancellation is returned as an error.
func (p *Pipeline) gatherGame(ctx context.Context, appID int64, summary schema.GamePatchSummary) (schema.GameInput, error) {
	game := schema.GameInput{AppID: appID, Summary: summary, Series: []schema.MonthlySeriesPoint{}}
	log := p.log.With().Int64("app_id", appID).Logger()

	if p.sources.Metadata != nil {
		meta, err := p.sources.Metadata.FetchStoreMetadata(ctx, appID)
		if err != nil {
			if ctx.Err() != nil {
				return game, ctx.Err()
			}
			log.Warn().Err(err).Msg("store metadata unavailable")
		} else {
			if meta.Name != "" {
				game.Name = schema.Ptr(meta.Name)
			}
			game.MetacriticScore = meta.MetacriticScore
		}
	}

	if p.sources.Owners != nil {
		owners, err := p.sources.Owners.FetchOwners(ctx, appID)
		if err != nil {
			if ctx.Err() != nil {
				return game, ctx.Err()
			}
			log.Warn().Err(err).Msg("owners unavailable")
		} else {
			game.OwnersEstimate = owners.OwnersEstimate
		}
	}

	if p.sources.Reviews != nil {
		stats, err := p.sources.Reviews.FetchReviews(ctx, appID)
		if err != nil {
			if ctx.Err() != nil {
				return game, ctx.Err()
			}
			log.Warn().Err(err).Msg("reviews unavailable")
		} else {
			game.ReviewCount = schema.Ptr(stats.TotalReviews)
			game.ReviewPercentPositive = stats.PercentPositive
		}
	}

	if p.sources.Series != nil {
		raw, err := p.sources.Series.FetchSeries(ctx, appID)
		if err != nil {
			if ctx.Err() != nil {
				return game, ctx.Err()
			}
			log.Warn().Err(err).Msg("player series unavailable")
		} else {
			game.Series = series.Normalize(appID, raw)
		}
	}

	log.Info().
		Bool("treated", summary.FirstMajorPatchDate != nil).
		Int("months", len(game.Series)).
		Bool("owners", game.OwnersEstimate != nil).
		Msg("gathered game")
	return game, nil
}

// Compare splits games by whether they shipped a patch in the last months and
// contrasts their owner estimates.
func (p *Pipeline) Compare(ctx context.Context, appIDs []int64, months int) (schema.ComparisonReport, events.Result, error) {
	if months <= 0 {
		months = schema.DefaultCompareMonths
	}
	result, err := p.extractor.Extract(ctx, appIDs, compare.WindowDays(months))
	if err != nil {
		return schema.ComparisonReport{}, result, err
	}

	entries := make([]schema.ComparisonEntry, 0, len(appIDs))
	for _, appID := range appIDs {
		summary := result.Summaries[appID]
		summary.AppID = appID
		entry := compare.Entry(summary)
		if err := p.gatherOwnersValue(ctx, &entry); err != nil {
			return schema.ComparisonReport{}, result, err
		}
		entries = append(entries, entry)
	}
	return schema.ComparisonReport{
		GeneratedAt: p.now().UTC(),
		Summary:     compare.Summarize(entries, months),
		Details:     entries,
	}, result, nil
}

// gatherOwnersValue fills the owner value of an entry from SteamDB, falling back to the
// current player count. Only cancellation is returned as an error.
func (p *Pipeline) gatherOwnersValue(ctx context.Context, entry *schema.ComparisonEntry) error {
	log := p.log.With().Int64("app_id", entry.AppID).Logger()

	if p.sources.Owners != nil {
		owners, err := p.sources.Owners.FetchOwners(ctx, entry.AppID)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			log.Warn().Err(err).Msg("owners unavailable")
		case owners.OwnersEstimate != nil:
			entry.OwnersRaw = owners.OwnersRaw
			entry.OwnersValue = owners.OwnersEstimate
			entry.OwnersSource = schema.OwnersFromSteamDB
			return nil
		}
	}

	if p.sources.Players != nil {
		players, err := p.sources.Players.FetchCurrentPlayers(ctx, entry.AppID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("current players unavailable")
			return nil
		}
		entry.OwnersValue = schema.Ptr(float64(players))
		entry.OwnersSource = schema.OwnersFromCurrentPlayers
	}
	return nil
}

// Top lists the most-played games and fills missing current player counts.
func (p *Pipeline) Top(ctx context.Context, limit int) ([]schema.TopGame, error) {
	if p.sources.Top == nil {
		return nil, errors.New("no ranking source configured")
	}
	games, err := p.sources.Top.FetchTop(ctx, limit)
	if err != nil {
		return nil, err
	}
	if p.sources.Players == nil {
		return games, nil
	}
	for i := range games {
		if games[i].CurrentPlayers != nil {
			continue
		}
		players, err := p.sources.Players.FetchCurrentPlayers(ctx, games[i].AppID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.log.Warn().Err(err).Int64("app_id", games[i].AppID).Msg("current players unavailable")
			continue
		}
		games[i].CurrentPlayers = schema.Ptr(players)
	}
	return games, nil
}

// newPatchReport shapes an extraction result as the patches document.
func newPatchReport(now time.Time, windowDays int, result events.Result) schema.PatchReport {
	if windowDays <= 0 {
		windowDays = schema.DefaultWindowDays
	}
	summary := make(map[string]schema.GamePatchSummary, len(result.Summaries))
	for appID, s := range result.Summaries {
		summary[schema.AppIDKey(appID)] = s
	}
	return schema.PatchReport{
		ExtractionDate: now.UTC(),
		Period:         fmt.Sprintf("past %d days", windowDays),
		Summary:        summary,
		Patches:        result.Records,
	}
}
