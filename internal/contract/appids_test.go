package contract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppIDList(t *testing.T) {
	ids, err := ParseAppIDList(" 730, ,570,")
	require.NoError(t, err)
	assert.Equal(t, []int64{730, 570}, ids)

	_, err = ParseAppIDList("730,-1")
	assert.Error(t, err)

	ids, err = ParseAppIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestReadAppIDs(t *testing.T) {
	ids, err := ReadAppIDs(strings.NewReader("730\n  570  \n# comment\n\n0\n440\n"))
	require.NoError(t, err)
	assert.Equal(t, []int64{730, 570, 440}, ids)
}

func TestDedupeAppIDs(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, DedupeAppIDs([]int64{3, 1, 3, 2, 1}))
	assert.NotNil(t, DedupeAppIDs(nil))
}

func FuzzParseAppIDList(f *testing.F) {
	f.Add("730,570")
	f.Add(",,")
	f.Add("1,x")
	f.Fuzz(func(t *testing.T, s string) {
		ids, err := ParseAppIDList(s)
		if err != nil {
			return
		}
		for _, id := range ids {
			if id <= 0 {
				t.Fatalf("non-positive id %d from %q", id, s)
			}
		}
	})
}
