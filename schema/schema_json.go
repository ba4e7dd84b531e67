package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// panelRowFields has the fields of PanelRow without its JSON methods.
type panelRowFields PanelRow

// panelRowJSON renders panel dates with the same calendar layouts as the CSV panel.
type panelRowJSON struct {
	panelRowFields
	EventDate *string `json:"event_date"` // YYYY-MM-DD
	Month     *string `json:"month"`      // YYYY-MM
}

// MarshalJSON writes event_date as YYYY-MM-DD and month as YYYY-MM.
func (r PanelRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(panelRowJSON{
		panelRowFields: panelRowFields(r),
		EventDate:      formatLayout(r.EventDate, DateLayout),
		Month:          formatLayout(r.Month, MonthLayout),
	})
}

// UnmarshalJSON reads the layouts written by MarshalJSON.
func (r *PanelRow) UnmarshalJSON(data []byte) error {
	var raw panelRowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	eventDate, err := parseLayout(raw.EventDate, DateLayout)
	if err != nil {
		return fmt.Errorf("event_date: %w", err)
	}
	month, err := parseLayout(raw.Month, MonthLayout)
	if err != nil {
		return fmt.Errorf("month: %w", err)
	}
	*r = PanelRow(raw.panelRowFields)
	r.EventDate = eventDate
	r.Month = month
	return nil
}

func formatLayout(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	return Ptr(t.UTC().Format(layout))
}

func parseLayout(s *string, layout string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(layout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
