package schema

import "time"

// PatchReport is the JSON document written by the patches command.
type PatchReport struct {
	ExtractionDate time.Time                   `json:"extraction_date"`
	Period         string                      `json:"period"`
	Summary        map[string]GamePatchSummary `json:"summary"`
	Patches        []PatchRecord               `json:"patches"`
}

// PanelReport is the JSON document written by the panel command.
type PanelReport struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Games       int        `json:"games"`
	Treated     int        `json:"treated"`
	Control     int        `json:"control"`
	Rows        []PanelRow `json:"rows"`
}

// ComparisonEntry is one game of an update-group comparison.
type ComparisonEntry struct {
	AppID           int64      `json:"appid"`
	UpdatedRecently bool       `json:"updated_recently"`
	LastPatchDate   *time.Time `json:"last_patch_date"`
	OwnersRaw       *string    `json:"owners_raw"`
	OwnersValue     *float64   `json:"owners_value"`
	OwnersSource    string     `json:"owners_source"` // steamdb, current_players or empty
}

// GroupStats describes the owner values of one comparison group.
type GroupStats struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
}

// ComparisonSummary contrasts recently updated games with the rest.
type ComparisonSummary struct {
	Months          int        `json:"months"`
	TotalChecked    int        `json:"total_checked"`
	UpdatedCount    int        `json:"updated_count"`
	NotUpdatedCount int        `json:"not_updated_count"`
	UpdatedStats    GroupStats `json:"updated_stats"`
	NotUpdatedStats GroupStats `json:"not_updated_stats"`
}

// ComparisonReport is the JSON document written by the compare command.
type ComparisonReport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Summary     ComparisonSummary `json:"summary"`
	Details     []ComparisonEntry `json:"details"`
}

// TopReport is the JSON document written by the top command.
type TopReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	Games       []TopGame `json:"games"`
}
