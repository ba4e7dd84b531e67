package steam

import (
	"context"
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

// maxTopPages bounds the SteamCharts ranking pages read for one request.
const maxTopPages = 10

var appLink = regexp.MustCompile(`/app/(\d+)`)

// topStrategy is one ranking upstream, tried in order.
type topStrategy struct {
	name  string
	fetch func(ctx context.Context, limit int) ([]schema.TopGame, error)
}

// TopScraper lists the most-played games from SteamCharts, falling back to the store search.
// Rankings move constantly, so they are never cached.
type TopScraper struct {
	charts     Fetcher
	store      Fetcher
	opts       Options
	strategies []topStrategy
	chartsPage ParserChain[[]schema.TopGame]
}

// NewTopScraper creates a TopScraper. charts serves steamcharts.com and store the store search.
func NewTopScraper(charts, store Fetcher, opts Options) *TopScraper {
	s := &TopScraper{
		charts: charts,
		store:  store,
		opts:   opts,
		chartsPage: ParserChain[[]schema.TopGame]{
			{Name: "table", Parse: chartsTopTable},
			{Name: "links", Parse: chartsTopLinks},
		},
	}
	s.strategies = []topStrategy{
		{name: schema.SourceChartsTop, fetch: s.fromCharts},
		{name: schema.SourceStoreSearch, fetch: s.fromStoreSearch},
	}
	return s
}

// FetchTop returns up to limit games, best first, ranked from 1.
func (s *TopScraper) FetchTop(ctx context.Context, limit int) ([]schema.TopGame, error) {
	if limit <= 0 {
		limit = schema.DefaultTopLimit
	}
	var errs []error
	for _, strategy := range s.strategies {
		games, err := strategy.fetch(ctx, limit)
		if err == nil && len(games) == 0 {
			err = fmt.Errorf("%w: empty ranking", ErrMalformed)
		}
		if err == nil {
			return rankTop(games, limit, strategy.name), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.opts.Logger.Debug().Err(err).Str("strategy", strategy.name).Msg("top games strategy failed")
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("top games: %w", errors.Join(errs...))
}

// rankTop drops repeated app ids, truncates to limit and numbers the ranking.
func rankTop(games []schema.TopGame, limit int, source string) []schema.TopGame {
	seen := make(map[int64]struct{}, len(games))
	out := make([]schema.TopGame, 0, min(limit, len(games)))
	for _, g := range games {
		if _, ok := seen[g.AppID]; ok {
			continue
		}
		seen[g.AppID] = struct{}{}
		g.Rank = len(out) + 1
		g.Source = source
		out = append(out, g)
		if len(out) == limit {
			break
		}
	}
	return out
}

// fromCharts reads ranking pages until limit games are known. Later pages are best effort.
func (s *TopScraper) fromCharts(ctx context.Context, limit int) ([]schema.TopGame, error) {
	var games []schema.TopGame
	for pageNum := 1; len(games) < limit && pageNum <= maxTopPages; pageNum++ {
		pageURL := s.opts.Endpoints.ChartsTopURL
		if pageNum > 1 {
			pageURL = fmt.Sprintf("%s/p.%d", strings.TrimSuffix(pageURL, "/"), pageNum)
		}
		resp, err := s.charts.Fetch(ctx, fetch.Request{URL: pageURL, Scraped: true, Source: schema.SourceChartsTop})
		if err != nil {
			if pageNum == 1 {
				return nil, err
			}
			break
		}
		page, err := NewPage(resp.Body)
		if err != nil {
			if pageNum == 1 {
				return nil, err
			}
			break
		}
		found, _, ok := s.chartsPage.Run(page)
		if !ok {
			break
		}
		games = append(games, found...)
	}
	return games, nil
}

// chartsTopTable reads ranking rows with their current player counts.
func chartsTopTable(page *Page) ([]schema.TopGame, bool) {
	var games []schema.TopGame
	page.Doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a[href]").First()
		appID, ok := linkAppID(link)
		if !ok {
			return
		}
		game := schema.TopGame{AppID: appID, Name: strings.TrimSpace(link.Text())}
		if players := parseCount(row.Find("td.num").First().Text()); players != nil {
			game.CurrentPlayers = schema.Ptr(int(*players))
		}
		games = append(games, game)
	})
	return games, len(games) > 0
}

// chartsTopLinks reads every app link on the page when the table layout changed.
func chartsTopLinks(page *Page) ([]schema.TopGame, bool) {
	var games []schema.TopGame
	page.Doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		if appID, ok := linkAppID(link); ok {
			games = append(games, schema.TopGame{AppID: appID, Name: strings.TrimSpace(link.Text())})
		}
	})
	return games, len(games) > 0
}

func (s *TopScraper) fromStoreSearch(ctx context.Context, limit int) ([]schema.TopGame, error) {
	resp, err := s.store.Fetch(ctx, fetch.Request{
		URL: s.opts.Endpoints.StoreSearchURL,
		Params: url.Values{
			"os":      {"win"},
			"sort_by": {"popular"},
			"count":   {strconv.Itoa(limit)},
		},
		Scraped: true,
		Source:  schema.SourceStoreSearch,
	})
	if err != nil {
		return nil, err
	}
	page, err := NewPage(resp.Body)
	if err != nil {
		return nil, err
	}

	var games []schema.TopGame
	page.Doc.Find("a.search_result_row").Each(func(_ int, row *goquery.Selection) {
		appID, ok := linkAppID(row)
		if !ok {
			return
		}
		name := strings.TrimSpace(row.Find("span.title").First().Text())
		if name == "" {
			name = fmt.Sprintf("App %d", appID)
		}
		games = append(games, schema.TopGame{AppID: appID, Name: name})
	})
	return games, nil
}

func linkAppID(link *goquery.Selection) (int64, bool) {
	href, ok := link.Attr("href")
	if !ok {
		return 0, false
	}
	m := appLink.FindStringSubmatch(href)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
