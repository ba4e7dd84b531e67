package schema

// Custom string types for type safety.
type (
	// ReasonCode explains how a patch was classified.
	ReasonCode string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run storage.
	DatabaseBackend string
)

// All reason codes produced by the classifier.
const (
	MinorKeywords ReasonCode = "minor_keywords"
	MajorKeywords ReasonCode = "major_keywords"
	DefaultMinor  ReasonCode = "default_minor"
	DefaultMajor  ReasonCode = "default_major"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // cache only
	NoneBackend       DatabaseBackend = "none"
)

// Cache endpoint names, one per upstream payload.
const (
	EndpointSteamNews    = "steam_news"
	EndpointStoreDetails = "store_appdetails"
	EndpointSteamDB      = "steamdb_app"
	EndpointSteamCharts  = "steamcharts_series"
	EndpointReviews      = "steam_reviews"
)

// Upstream names of uncached requests, used as metric labels.
const (
	SourceReviewsAPI     = "reviews_api"
	SourceStorePage      = "store_page"
	SourceCurrentPlayers = "current_players"
	SourceChartsTop      = "steamcharts_top"
	SourceStoreSearch    = "store_search"
)

// Owner value sources of a comparison entry.
const (
	OwnersFromSteamDB        = "steamdb"
	OwnersFromCurrentPlayers = "current_players"
)

// Panel geometry.
const (
	MinRelMonth = -4
	MaxRelMonth = 4
	RowsPerGame = MaxRelMonth - MinRelMonth + 1
)

// MaxRecordBodyLength bounds the body kept on a PatchRecord.
const MaxRecordBodyLength = 500

// DefaultWindowDays is the trailing news window used by extraction.
const DefaultWindowDays = 365

// DefaultCompareMonths is the recency window of the update-group comparison.
// A month counts as 30 days.
const DefaultCompareMonths = 6

// DefaultTopLimit is the ranking size of the top command.
const DefaultTopLimit = 30

// Panel group labels.
const (
	TreatedGroup = "treated"
	ControlGroup = "control"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidRunBackends lists all valid run store backends.
var ValidRunBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
