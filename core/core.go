// Package core has the batch orchestration for patch extraction and panel building.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/internal/metrics"
	"github.com/huangsam/patchpanel/internal/outwriter"
	"github.com/huangsam/patchpanel/internal/steam"
	"github.com/huangsam/patchpanel/schema"
	"github.com/rs/zerolog"
)

// Deps are the process-wide collaborators of a batch.
type Deps struct {
	Manager contract.CacheManager
	Metrics *metrics.Recorder
	Logger  zerolog.Logger
	Sources *contract.Sources // nil means the live Steam sources
}

// ExecutorFunc defines the function signature for executing the batch commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, deps Deps) error

// sourcesFor returns the injected sources or wires the live Steam sources for cfg.
func sourcesFor(cfg *contract.Config, deps Deps) contract.Sources {
	if deps.Sources != nil {
		return *deps.Sources
	}
	var cache contract.Cache
	if deps.Manager != nil {
		cache = deps.Manager.GetCache()
	}
	return steam.NewSources(cfg, cache, deps.Metrics, deps.Logger)
}

// newPipeline wires the sources for cfg into a Pipeline.
func newPipeline(sources contract.Sources, deps Deps) *Pipeline {
	return NewPipeline(sources, WithRecorder(deps.Metrics), WithLogger(deps.Logger))
}

// resolveAppIDs appends the most-played games to the batch when cfg.Top is set.
func resolveAppIDs(ctx context.Context, cfg *contract.Config, sources contract.Sources) error {
	if cfg.Top > 0 {
		if sources.Top == nil {
			return errors.New("no ranking source configured for --top")
		}
		games, err := sources.Top.FetchTop(ctx, cfg.Top)
		if err != nil {
			return fmt.Errorf("cannot discover top games: %w", err)
		}
		contract.MergeTopAppIDs(cfg, games)
	}
	if len(cfg.AppIDs) == 0 {
		return errors.New("no app ids to process")
	}
	return nil
}

// GetPanelResults builds the event-time panel for the configured games and records the run.
func GetPanelResults(ctx context.Context, cfg *contract.Config, deps Deps) (schema.PanelReport, error) {
	sources := sourcesFor(cfg, deps)
	if err := resolveAppIDs(ctx, cfg, sources); err != nil {
		return schema.PanelReport{}, err
	}
	tracker := beginRun(cfg, deps.Manager, time.Now())

	report, result, err := newPipeline(sources, deps).Panel(ctx, cfg.AppIDs, cfg.WindowDays)
	if err != nil {
		tracker.abort(err)
		return schema.PanelReport{}, err
	}

	tracker.recordPatches(result.Records)
	tracker.recordPanel(report.Rows)
	tracker.end(len(cfg.AppIDs))
	finishMetrics(cfg, deps.Metrics)
	return report, nil
}

// GetPatchResults extracts patch records for the configured games and records the run.
func GetPatchResults(ctx context.Context, cfg *contract.Config, deps Deps) (schema.PatchReport, error) {
	sources := sourcesFor(cfg, deps)
	if err := resolveAppIDs(ctx, cfg, sources); err != nil {
		return schema.PatchReport{}, err
	}
	tracker := beginRun(cfg, deps.Manager, time.Now())

	report, result, err := newPipeline(sources, deps).Patches(ctx, cfg.AppIDs, cfg.WindowDays)
	if err != nil {
		tracker.abort(err)
		return schema.PatchReport{}, err
	}

	tracker.recordPatches(result.Records)
	tracker.end(len(cfg.AppIDs))
	finishMetrics(cfg, deps.Metrics)
	return report, nil
}

// GetComparisonResults compares recently updated games with the rest and records the run.
func GetComparisonResults(ctx context.Context, cfg *contract.Config, deps Deps) (schema.ComparisonReport, error) {
	sources := sourcesFor(cfg, deps)
	if err := resolveAppIDs(ctx, cfg, sources); err != nil {
		return schema.ComparisonReport{}, err
	}
	tracker := beginRun(cfg, deps.Manager, time.Now())

	report, result, err := newPipeline(sources, deps).Compare(ctx, cfg.AppIDs, cfg.CompareMonths)
	if err != nil {
		tracker.abort(err)
		return schema.ComparisonReport{}, err
	}

	tracker.recordPatches(result.Records)
	tracker.end(len(cfg.AppIDs))
	finishMetrics(cfg, deps.Metrics)
	return report, nil
}

// GetTopResults lists the limit most-played games.
func GetTopResults(ctx context.Context, cfg *contract.Config, deps Deps, limit int) (schema.TopReport, error) {
	pipeline := newPipeline(sourcesFor(cfg, deps), deps)
	games, err := pipeline.Top(ctx, limit)
	if err != nil {
		return schema.TopReport{}, err
	}
	finishMetrics(cfg, deps.Metrics)
	return schema.TopReport{GeneratedAt: pipeline.now().UTC(), Games: games}, nil
}

// ExecutePanel builds the panel and writes it out.
func ExecutePanel(ctx context.Context, cfg *contract.Config, deps Deps) error {
	start := time.Now()
	report, err := GetPanelResults(ctx, cfg, deps)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePanel(report, cfg, time.Since(start))
}

// ExecutePatches extracts the patch report and writes it out.
func ExecutePatches(ctx context.Context, cfg *contract.Config, deps Deps) error {
	start := time.Now()
	report, err := GetPatchResults(ctx, cfg, deps)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePatches(report, cfg.AppIDs, cfg, time.Since(start))
}

// ExecuteCompare runs the update-group comparison and writes it out.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, deps Deps) error {
	start := time.Now()
	report, err := GetComparisonResults(ctx, cfg, deps)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteComparison(report, cfg, time.Since(start))
}

// ExecuteTop returns an executor that lists the limit most-played games.
func ExecuteTop(limit int) ExecutorFunc {
	return func(ctx context.Context, cfg *contract.Config, deps Deps) error {
		start := time.Now()
		report, err := GetTopResults(ctx, cfg, deps, limit)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteTop(report, cfg, time.Since(start))
	}
}

// finishMetrics dumps the batch metrics when a textfile is configured.
func finishMetrics(cfg *contract.Config, rec *metrics.Recorder) {
	if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
		contract.LogWarn("Cannot write metrics", err)
	}
}
