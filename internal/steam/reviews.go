package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/huangsam/patchpanel/internal/fetch"
	"github.com/huangsam/patchpanel/schema"
)

var reviewTooltip = regexp.MustCompile(`([\d.]+)%\s+of\s+the\s+([\d,]+)\s+user\s+reviews`)

type reviewsPayload struct {
	Success      json.RawMessage `json:"success"`
	QuerySummary *struct {
		ReviewScoreDesc string `json:"review_score_desc"`
		TotalPositive   int    `json:"total_positive"`
		TotalNegative   int    `json:"total_negative"`
		TotalReviews    int    `json:"total_reviews"`
	} `json:"query_summary"`
}

// reviewStrategy is one way of obtaining review stats, tried in order.
type reviewStrategy struct {
	name  string
	fetch func(ctx context.Context, appID int64) (schema.ReviewStats, error)
}

// ReviewsClient reads review totals from the reviews API and falls back to the store page.
type ReviewsClient struct {
	api        Fetcher
	pages      Fetcher
	opts       Options
	strategies []reviewStrategy
	page       ParserChain[schema.ReviewStats]
}

// NewReviewsClient creates a ReviewsClient. api serves the reviews API and pages the store pages.
func NewReviewsClient(api, pages Fetcher, opts Options) *ReviewsClient {
	c := &ReviewsClient{
		api:   api,
		pages: pages,
		opts:  opts,
		page: ParserChain[schema.ReviewStats]{
			{Name: "summary_row", Parse: summaryRowReviews},
			{Name: "itemprop", Parse: itempropReviews},
		},
	}
	c.strategies = []reviewStrategy{
		{name: "api", fetch: c.fromAPI},
		{name: "store_page", fetch: c.fromStorePage},
	}
	return c
}

// FetchReviews returns the all-time review summary of a game.
// It fails only when every strategy failed.
func (c *ReviewsClient) FetchReviews(ctx context.Context, appID int64) (schema.ReviewStats, error) {
	if stats, ok := readCache[schema.ReviewStats](c.opts.Cache, c.opts.Logger, schema.EndpointReviews, appID); ok {
		return stats, nil
	}

	var errs []error
	for _, s := range c.strategies {
		stats, err := s.fetch(ctx, appID)
		if err == nil {
			stats.AppID = appID
			stats.Strategy = s.name
			writeCache(c.opts.Cache, c.opts.Logger, schema.EndpointReviews, appID, stats)
			return stats, nil
		}
		if ctx.Err() != nil {
			return schema.ReviewStats{}, ctx.Err()
		}
		c.opts.Logger.Debug().Err(err).Int64("app_id", appID).Str("strategy", s.name).Msg("reviews strategy failed")
		errs = append(errs, err)
	}
	return schema.ReviewStats{}, fmt.Errorf("reviews for app %d: %w", appID, errors.Join(errs...))
}

func (c *ReviewsClient) fromAPI(ctx context.Context, appID int64) (schema.ReviewStats, error) {
	params := url.Values{
		"appid":        {strconv.FormatInt(appID, 10)},
		"json":         {"1"},
		"cursor":       {"*"},
		"num_per_page": {"0"},
		"language":     {"english"},
	}
	if c.opts.APIKey != "" {
		params.Set("key", c.opts.APIKey)
	}
	resp, err := c.api.Fetch(ctx, fetch.Request{URL: c.opts.Endpoints.ReviewsURL, Params: params, Source: schema.SourceReviewsAPI})
	if err != nil {
		return schema.ReviewStats{}, err
	}
	return decodeReviews(resp.Body)
}

// decodeReviews reads the query summary of a reviews API payload.
func decodeReviews(body []byte) (schema.ReviewStats, error) {
	var payload reviewsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return schema.ReviewStats{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if success := strings.TrimSpace(string(payload.Success)); success != "1" && success != "true" {
		return schema.ReviewStats{}, fmt.Errorf("%w: reviews query was not successful", ErrMalformed)
	}
	if payload.QuerySummary == nil {
		return schema.ReviewStats{}, fmt.Errorf("%w: missing query_summary", ErrMalformed)
	}

	q := payload.QuerySummary
	stats := schema.ReviewStats{
		TotalReviews:  q.TotalReviews,
		TotalPositive: schema.Ptr(q.TotalPositive),
		TotalNegative: schema.Ptr(q.TotalNegative),
		ScoreDesc:     q.ReviewScoreDesc,
	}
	if q.TotalReviews > 0 {
		stats.PercentPositive = schema.Ptr(float64(q.TotalPositive) * 100 / float64(q.TotalReviews))
	}
	return stats, nil
}

func (c *ReviewsClient) fromStorePage(ctx context.Context, appID int64) (schema.ReviewStats, error) {
	pageURL := fmt.Sprintf(c.opts.Endpoints.StorePageURL, appID)
	resp, err := c.pages.Fetch(ctx, fetch.Request{URL: pageURL, Scraped: true, Source: schema.SourceStorePage})
	if err != nil {
		return schema.ReviewStats{}, err
	}
	page, err := NewPage(resp.Body)
	if err != nil {
		return schema.ReviewStats{}, err
	}
	stats, _, ok := c.page.Run(page)
	if !ok {
		return schema.ReviewStats{}, fmt.Errorf("%w: no review summary on store page", ErrMalformed)
	}
	return stats, nil
}

// summaryRowReviews reads the review tooltips of the store page and keeps the largest total,
// which is the all-time row.
func summaryRowReviews(page *Page) (schema.ReviewStats, bool) {
	var best schema.ReviewStats
	found := false
	page.Doc.Find(".user_reviews_summary_row").Each(func(_ int, row *goquery.Selection) {
		tooltip, _ := row.Attr("data-tooltip-html")
		m := reviewTooltip.FindStringSubmatch(tooltip)
		if m == nil {
			return
		}
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return
		}
		total, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
		if err != nil || (found && total <= best.TotalReviews) {
			return
		}
		best = schema.ReviewStats{
			TotalReviews:    total,
			PercentPositive: schema.Ptr(pct),
			ScoreDesc:       strings.TrimSpace(row.Find(".game_review_summary").First().Text()),
		}
		found = true
	})
	return best, found
}

// itempropReviews reads the structured data meta tags. ratingValue is on a 0-10 scale.
func itempropReviews(page *Page) (schema.ReviewStats, bool) {
	countText, ok := page.Doc.Find(`meta[itemprop="reviewCount"]`).First().Attr("content")
	if !ok {
		return schema.ReviewStats{}, false
	}
	total, err := strconv.Atoi(strings.TrimSpace(countText))
	if err != nil {
		return schema.ReviewStats{}, false
	}
	stats := schema.ReviewStats{TotalReviews: total}
	if ratingText, ok := page.Doc.Find(`meta[itemprop="ratingValue"]`).First().Attr("content"); ok {
		if rating, err := strconv.ParseFloat(strings.TrimSpace(ratingText), 64); err == nil {
			stats.PercentPositive = schema.Ptr(rating * 10)
		}
	}
	return stats, true
}
