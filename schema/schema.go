// Package schema has the data model shared by every part of patchpanel.
package schema

import "time"

// NewsItem is a single news entry published for a game.
type NewsItem struct {
	AppID           int64     `json:"appid"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	PublishedAt     time.Time `json:"published_at"`     // UTC instant
	SourceTimestamp int64     `json:"source_timestamp"` // unix seconds as reported upstream
}

// PatchClassification is the verdict for a news item that looks like a patch.
type PatchClassification struct {
	IsPatch bool       `json:"is_patch"`
	IsMajor bool       `json:"is_major"`
	Reason  ReasonCode `json:"reason"`
}

// PatchRecord is a qualifying news item joined with its classification.
type PatchRecord struct {
	AppID           int64      `json:"appid"`
	Title           string     `json:"title"`
	Body            string     `json:"body"` // truncated to MaxRecordBodyLength characters
	PublishedAt     time.Time  `json:"date"`
	SourceTimestamp int64      `json:"timestamp"`
	IsMajor         bool       `json:"is_major"`
	Reason          ReasonCode `json:"reason"`
}

// GamePatchSummary aggregates the patch records of one game.
type GamePatchSummary struct {
	AppID               int64      `json:"appid"`
	TotalPatches        int        `json:"total_patches"`
	MajorPatches        int        `json:"major_patches"`
	MinorPatches        int        `json:"minor_patches"`
	HasMajorPatch       bool       `json:"has_major_patch"`
	FirstMajorPatchDate *time.Time `json:"first_major_patch_date"`
	LastPatchDate       *time.Time `json:"last_patch_date"`
}

// RawSeriesPoint is one player-count observation as scraped, possibly duplicated per month.
type RawSeriesPoint struct {
	Date time.Time `json:"date"`
	Avg  float64   `json:"avg"`
	Peak float64   `json:"peak"`
}

// MonthlySeriesPoint is the normalized player count of a game for one calendar month.
type MonthlySeriesPoint struct {
	AppID       int64     `json:"appid"`
	Month       time.Time `json:"month"` // first of month, UTC
	AvgPlayers  float64   `json:"avg_players"`
	PeakPlayers float64   `json:"peak_players"`
}

// StoreMetadata is the subset of the Steam store appdetails payload that patchpanel keeps.
type StoreMetadata struct {
	AppID           int64    `json:"appid"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	MetacriticScore *int     `json:"metacritic_score"`
	Developers      []string `json:"developers"`
	Publishers      []string `json:"publishers"`
	Genres          []string `json:"genres"`
	ReleaseDate     string   `json:"release_date"`
}

// OwnersData is the owners and peak-players text scraped for a game.
type OwnersData struct {
	AppID          int64    `json:"appid"`
	OwnersRaw      *string  `json:"owners_raw"`
	OwnersEstimate *float64 `json:"owners_estimate"`
	PeakPlayersRaw *string  `json:"peak_players_raw"`
	URL            string   `json:"url"`
}

// ReviewStats is the aggregated user-review summary of a game.
// Positive and negative totals are only known when the reviews API answered.
type ReviewStats struct {
	AppID           int64    `json:"appid"`
	TotalReviews    int      `json:"total_reviews"`
	TotalPositive   *int     `json:"total_positive"`
	TotalNegative   *int     `json:"total_negative"`
	PercentPositive *float64 `json:"percent_positive"` // 0-100, nil without reviews
	ScoreDesc       string   `json:"review_score_desc"`
	Strategy        string   `json:"strategy"`
}

// TopGame is one entry of a most-played ranking.
type TopGame struct {
	Rank           int    `json:"rank"`
	AppID          int64  `json:"appid"`
	Name           string `json:"name"`
	CurrentPlayers *int   `json:"current_players"`
	Source         string `json:"source"`
}

// GameInput is everything the panel builder needs to know about one game.
type GameInput struct {
	AppID                 int64
	Name                  *string
	Summary               GamePatchSummary
	Series                []MonthlySeriesPoint
	OwnersEstimate        *float64
	MetacriticScore       *int
	ReviewCount           *int
	ReviewPercentPositive *float64
}

// PanelRow is one (game, relative month) row of the event-time panel.
type PanelRow struct {
	AppID           int64      `json:"appid"`
	Name            *string    `json:"name"`
	EventDate       *time.Time `json:"event_date"`
	RelMonth        int        `json:"rel_month"`
	Month           *time.Time `json:"month"`
	AvgPlayers      *float64   `json:"avg_players"`
	PeakPlayers     *float64   `json:"peak_players"`
	OwnersEstimate  *float64   `json:"owners_estimate"`
	MetacriticScore *int       `json:"metacritic_score"`
	Treatment       int        `json:"treatment"`

	ReviewCount           *int     `json:"review_count"`
	ReviewPercentPositive *float64 `json:"review_percent_positive"`
}

// CacheStats counts live cache entries.
type CacheStats struct {
	TotalCount      int            `json:"total_count"`
	CountByEndpoint map[string]int `json:"count_by_endpoint"`
}
