package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/huangsam/patchpanel/internal/fetch"
	"github.com/huangsam/patchpanel/schema"
)

var errEmptyCell = errors.New("empty cell")

// millisThreshold separates unix milliseconds from unix seconds.
const millisThreshold = 1e12

var (
	chartDataAssign = regexp.MustCompile(`(?s)chartData\s*=\s*(\[.+?\])\s*;`)
	seriesData      = regexp.MustCompile(`(?s)data:\s*(\[\[.*?\]\])\s*\}`)
	setDataCall     = regexp.MustCompile(`(?s)setData\((\[.+?\])\)`)
	bareArray       = regexp.MustCompile(`(?s)\[\s*\[\s*\d+\s*,\s*[\d.]+.*?\]\s*\]`)
	trailingComma   = regexp.MustCompile(`,\s*\]`)
)

// SteamChartsScraper reads monthly player counts from SteamCharts app pages.
type SteamChartsScraper struct {
	fetcher Fetcher
	opts    Options
	chain   ParserChain[[]schema.RawSeriesPoint]
}

// NewSteamChartsScraper creates a SteamChartsScraper.
func NewSteamChartsScraper(fetcher Fetcher, opts Options) *SteamChartsScraper {
	return &SteamChartsScraper{
		fetcher: fetcher,
		opts:    opts,
		chain: ParserChain[[]schema.RawSeriesPoint]{
			{Name: "embedded", Parse: embeddedSeries},
			{Name: "table", Parse: tableSeries},
			{Name: "arrays", Parse: bareArraySeries},
		},
	}
}

// FetchSeries returns the raw monthly points of a game. A page without data yields ErrMalformed.
func (s *SteamChartsScraper) FetchSeries(ctx context.Context, appID int64) ([]schema.RawSeriesPoint, error) {
	if points, ok := readCache[[]schema.RawSeriesPoint](s.opts.Cache, s.opts.Logger, schema.EndpointSteamCharts, appID); ok {
		return points, nil
	}

	pageURL := fmt.Sprintf(s.opts.Endpoints.SteamChartsURL, appID)
	resp, err := s.fetcher.Fetch(ctx, fetch.Request{URL: pageURL, Scraped: true, Source: schema.EndpointSteamCharts})
	if err != nil {
		return nil, fmt.Errorf("steamcharts page for app %d: %w", appID, err)
	}

	page, err := NewPage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("steamcharts page for app %d: %w", appID, err)
	}
	points, strategy, ok := s.chain.Run(page)
	if !ok {
		return nil, fmt.Errorf("steamcharts page for app %d: %w: no series found", appID, ErrMalformed)
	}
	s.opts.Logger.Debug().Int64("app_id", appID).Str("strategy", strategy).Int("points", len(points)).Msg("steamcharts series")

	writeCache(s.opts.Cache, s.opts.Logger, schema.EndpointSteamCharts, appID, points)
	return points, nil
}

// embeddedSeries reads chart data assigned in an inline script.
func embeddedSeries(page *Page) ([]schema.RawSeriesPoint, bool) {
	for _, pattern := range []*regexp.Regexp{chartDataAssign, seriesData, setDataCall} {
		m := pattern.FindStringSubmatch(page.Raw)
		if m == nil {
			continue
		}
		if points := decodeTriples(m[1]); len(points) > 0 {
			return points, true
		}
	}
	return nil, false
}

// bareArraySeries tries every [[ts, avg, peak], ...] literal on the page.
func bareArraySeries(page *Page) ([]schema.RawSeriesPoint, bool) {
	for _, literal := range bareArray.FindAllString(page.Raw, -1) {
		if points := decodeTriples(literal); len(points) > 0 {
			return points, true
		}
	}
	return nil, false
}

// decodeTriples decodes [[timestamp, avg, peak], ...]; rows with nulls or too few values are skipped.
func decodeTriples(literal string) []schema.RawSeriesPoint {
	var rows [][]*float64
	if err := json.Unmarshal([]byte(trailingComma.ReplaceAllString(literal, "]")), &rows); err != nil {
		return nil
	}
	points := make([]schema.RawSeriesPoint, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 || row[0] == nil || row[1] == nil || row[2] == nil {
			continue
		}
		points = append(points, schema.RawSeriesPoint{
			Date: timestampToTime(*row[0]),
			Avg:  *row[1],
			Peak: *row[2],
		})
	}
	return points
}

func timestampToTime(ts float64) time.Time {
	if ts > millisThreshold {
		return time.UnixMilli(int64(ts)).UTC()
	}
	return time.Unix(int64(ts), 0).UTC()
}

// tableSeries reads a monthly table whose rows start with "January 2024" style labels.
func tableSeries(page *Page) ([]schema.RawSeriesPoint, bool) {
	var points []schema.RawSeriesPoint
	page.Doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		header := strings.ToLower(table.Text())
		if !strings.Contains(header, "month") && !strings.Contains(header, "average") && !strings.Contains(header, "avg") {
			return true
		}
		avgCol, peakCol := tableColumns(table)
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td, th").Map(func(_ int, cell *goquery.Selection) string {
				return strings.TrimSpace(cell.Text())
			})
			if len(cells) <= max(avgCol, peakCol) {
				return
			}
			month, err := time.Parse("January 2006", cells[0])
			if err != nil {
				return
			}
			avg, errAvg := parseCell(cells[avgCol])
			peak, errPeak := parseCell(cells[peakCol])
			if errAvg != nil || errPeak != nil {
				return
			}
			points = append(points, schema.RawSeriesPoint{Date: month.UTC(), Avg: avg, Peak: peak})
		})
		return len(points) == 0
	})
	return points, len(points) > 0
}

// tableColumns locates the average and peak columns from the header, defaulting to 1 and 2.
func tableColumns(table *goquery.Selection) (avgCol, peakCol int) {
	avgCol, peakCol = 1, 2
	table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
		label := strings.ToLower(cell.Text())
		switch {
		case strings.Contains(label, "peak"):
			peakCol = i
		case strings.Contains(label, "avg") || strings.Contains(label, "average"):
			avgCol = i
		}
	})
	return avgCol, peakCol
}

func parseCell(text string) (float64, error) {
	text = strings.ReplaceAll(text, ",", "")
	if text == "" || text == "-" || text == "–" {
		return 0, errEmptyCell
	}
	return strconv.ParseFloat(text, 64)
}
