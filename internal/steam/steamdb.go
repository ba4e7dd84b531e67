package steam

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/huangsam/patchpanel/internal/fetch"
	"github.com/huangsam/patchpanel/schema"
)

// maxLabelLength skips long paragraphs that merely mention a label.
const maxLabelLength = 40

var (
	ownersLabel = regexp.MustCompile(`(?i)owners|owned`)
	peakLabel   = regexp.MustCompile(`(?i)peak\s*players`)

	ownersInline = regexp.MustCompile(`(?i)owners[:\s]*([\d,]+(?:\s*(?:-|\.\.|–)\s*[\d,]+)?)`)
	peakInline   = regexp.MustCompile(`(?i)peak players[:\s]*([\d,]+)`)
)

// SteamDBScraper reads owners and peak-players text from SteamDB app pages.
type SteamDBScraper struct {
	fetcher Fetcher
	opts    Options
	owners  ParserChain[string]
	peak    ParserChain[string]
}

// NewSteamDBScraper creates a SteamDBScraper.
func NewSteamDBScraper(fetcher Fetcher, opts Options) *SteamDBScraper {
	return &SteamDBScraper{
		fetcher: fetcher,
		opts:    opts,
		owners: ParserChain[string]{
			{Name: "label", Parse: labelValue(ownersLabel)},
			{Name: "inline", Parse: inlineValue(ownersInline)},
		},
		peak: ParserChain[string]{
			{Name: "label", Parse: labelValue(peakLabel)},
			{Name: "inline", Parse: inlineValue(peakInline)},
		},
	}
}

// FetchOwners returns the owners text and estimate of a game.
// A page without owners or peak-players text yields ErrMalformed.
func (s *SteamDBScraper) FetchOwners(ctx context.Context, appID int64) (schema.OwnersData, error) {
	if data, ok := readCache[schema.OwnersData](s.opts.Cache, s.opts.Logger, schema.EndpointSteamDB, appID); ok {
		return data, nil
	}

	pageURL := fmt.Sprintf(s.opts.Endpoints.SteamDBURL, appID)
	resp, err := s.fetcher.Fetch(ctx, fetch.Request{URL: pageURL, Scraped: true, Source: schema.EndpointSteamDB})
	if err != nil {
		return schema.OwnersData{}, fmt.Errorf("steamdb page for app %d: %w", appID, err)
	}

	data, err := s.parse(appID, pageURL, resp.Body)
	if err != nil {
		return schema.OwnersData{}, fmt.Errorf("steamdb page for app %d: %w", appID, err)
	}
	writeCache(s.opts.Cache, s.opts.Logger, schema.EndpointSteamDB, appID, data)
	return data, nil
}

func (s *SteamDBScraper) parse(appID int64, pageURL string, body []byte) (schema.OwnersData, error) {
	page, err := NewPage(body)
	if err != nil {
		return schema.OwnersData{}, err
	}

	data := schema.OwnersData{AppID: appID, URL: pageURL}
	if owners, strategy, ok := s.owners.Run(page); ok {
		data.OwnersRaw = schema.Ptr(owners)
		data.OwnersEstimate = ParseOwners(owners)
		s.opts.Logger.Debug().Int64("app_id", appID).Str("strategy", strategy).Str("owners", owners).Msg("steamdb owners")
	}
	if peak, _, ok := s.peak.Run(page); ok {
		data.PeakPlayersRaw = schema.Ptr(peak)
	}
	if data.OwnersRaw == nil && data.PeakPlayersRaw == nil {
		return schema.OwnersData{}, fmt.Errorf("%w: no owners or peak players on page", ErrMalformed)
	}
	return data, nil
}

// labelValue finds a short leaf element matching label and reads the text next to it.
func labelValue(label *regexp.Regexp) func(*Page) (string, bool) {
	return func(page *Page) (string, bool) {
		var value string
		page.Doc.Find("body *").Not("script, style").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if sel.Children().Length() > 0 {
				return true
			}
			text := strings.TrimSpace(sel.Text())
			if len(text) > maxLabelLength || !label.MatchString(text) {
				return true
			}
			if next := strings.TrimSpace(sel.Next().Text()); next != "" {
				value = next
				return false
			}
			if next := strings.TrimSpace(sel.Parent().Next().Text()); next != "" {
				value = next
				return false
			}
			return true
		})
		return value, value != ""
	}
}

// inlineValue searches the raw HTML for "Label: value".
func inlineValue(pattern *regexp.Regexp) func(*Page) (string, bool) {
	return func(page *Page) (string, bool) {
		m := pattern.FindStringSubmatch(page.Raw)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	}
}
