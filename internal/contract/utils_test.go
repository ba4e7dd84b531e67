package contract

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	assert.Equal(t, TreatedValue, GetPlainLabel(1))
	assert.Equal(t, ControlValue, GetPlainLabel(0))
}

func TestGetColorLabel(t *testing.T) {
	assert.Contains(t, GetColorLabel(1), TreatedValue)
	assert.Contains(t, GetColorLabel(0), ControlValue)
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.csv")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.FileExists(t, path)
}

func TestGetDBFilePaths(t *testing.T) {
	assert.True(t, strings.HasSuffix(GetCacheDBFilePath(), ".patchpanel_cache.db"))
	assert.True(t, strings.HasSuffix(GetRunDBFilePath(), ".patchpanel_runs.db"))
	assert.NotEqual(t, GetCacheDBFilePath(), GetRunDBFilePath())
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "Counter-Strike 2", TruncateName("Counter-Strike 2", 20))
	assert.Equal(t, "Counte...", TruncateName("Counter-Strike 2", 9))
	assert.Equal(t, "abcdef", TruncateName("abcdef", 3))
}

func TestTruncateBody(t *testing.T) {
	short := "patch notes"
	assert.Equal(t, short, TruncateBody(short))

	long := strings.Repeat("é", 600)
	assert.Equal(t, 500, len([]rune(TruncateBody(long))))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Int64("app_id", 730).Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "app_id=730")

	_, err = NewLogger("loud", &buf)
	assert.Error(t, err)
}
