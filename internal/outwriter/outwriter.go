// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WritePanel prints the event-time panel using the configured output format.
func (ow *OutWriter) WritePanel(report schema.PanelReport, cfg *contract.Config, duration time.Duration) error {
	return WritePanelResults(report, cfg, duration)
}

// WritePatches prints the patch extraction report using the configured output format.
func (ow *OutWriter) WritePatches(report schema.PatchReport, order []int64, cfg *contract.Config, duration time.Duration) error {
	return WritePatchResults(report, order, cfg, duration)
}

// WriteComparison prints the update-group comparison using the configured output format.
func (ow *OutWriter) WriteComparison(report schema.ComparisonReport, cfg *contract.Config, duration time.Duration) error {
	return WriteComparisonResults(report, cfg, duration)
}

// WriteTop prints the most-played games using the configured output format.
func (ow *OutWriter) WriteTop(report schema.TopReport, cfg *contract.Config, duration time.Duration) error {
	return WriteTopResults(report, cfg, duration)
}
