package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelRowJSONDates(t *testing.T) {
	event := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	month := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	row := PanelRow{
		AppID:       730,
		Name:        Ptr("Counter-Strike 2"),
		EventDate:   &event,
		RelMonth:    -4,
		Month:       &month,
		AvgPlayers:  Ptr(996.5),
		Treatment:   1,
		ReviewCount: Ptr(1200),
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2024-03-01", doc["event_date"])
	assert.Equal(t, "2023-11", doc["month"])
	assert.Equal(t, 996.5, doc["avg_players"])
	assert.Equal(t, float64(-4), doc["rel_month"])
	assert.Equal(t, float64(1200), doc["review_count"])

	var decoded PanelRow
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, row, decoded)
}

func TestPanelRowJSONNullDates(t *testing.T) {
	data, err := json.Marshal(PanelRow{AppID: 10, RelMonth: 2})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "event_date")
	assert.Nil(t, doc["event_date"])
	assert.Nil(t, doc["month"])

	var decoded PanelRow
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded.EventDate)
	assert.Nil(t, decoded.Month)
}

func TestPanelRowJSONRejectsBadDate(t *testing.T) {
	var row PanelRow
	err := json.Unmarshal([]byte(`{"appid":1,"event_date":"2024-03-01T00:00:00Z"}`), &row)
	assert.ErrorContains(t, err, "event_date")
}
