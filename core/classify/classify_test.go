package classify

import (
	"strings"
	"testing"

	"github.com/huangsam/patchpanel/schema"
	"github.com/stretchr/testify/assert"
)

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		body      string
		wantPatch bool
		wantMajor bool
		reason    schema.ReasonCode
	}{
		{"major update with new mode", "Major Update 2.0", "New game mode added", true, true, schema.MajorKeywords},
		{"hotfix only", "Hotfix 1.2.1", "Fixed a crash", true, false, schema.MinorKeywords},
		{"balance alone is no indicator", "Balance Patch", "", true, true, schema.DefaultMajor},
		{"roadmap", "Roadmap", "Our plans for next year", false, false, ""},
		{"major beats minor", "Hotfix", "plus a massive overhaul", true, true, schema.MajorKeywords},
		{"balance adjustment is minor", "Update", "Balance adjustment for rifles", true, false, schema.MinorKeywords},
		{"generic patch defaults major", "Patch notes", "Various changes", true, true, schema.DefaultMajor},
		{"case insensitive", "PATCH", "PERFORMANCE", true, false, schema.MinorKeywords},
		{"content update phrase", "Free", "content update", true, true, schema.DefaultMajor},
		{"title and body joined by a space", "Hot", "fix", true, true, schema.DefaultMajor},
		{"empty", "", "", false, false, ""},
	}

	c := NewKeywordClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Classify(tt.title, tt.body)
			assert.Equal(t, tt.wantPatch, ok)
			if !ok {
				assert.Equal(t, schema.PatchClassification{}, got)
				return
			}
			assert.True(t, got.IsPatch)
			assert.Equal(t, tt.wantMajor, got.IsMajor)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestDefaultMinorFallback(t *testing.T) {
	// "bug fix" is also a minor indicator, so swap the minor set out to reach the fallback.
	c := NewKeywordClassifier()
	c.Minor = nil

	got, ok := c.Classify("Patch", "contains a bug fix")
	assert.True(t, ok)
	assert.False(t, got.IsMajor)
	assert.Equal(t, schema.DefaultMinor, got.Reason)

	got, ok = c.Classify("Patch", "nothing special")
	assert.True(t, ok)
	assert.Equal(t, schema.DefaultMajor, got.Reason)
}

func TestClassifierFunc(t *testing.T) {
	var c Classifier = ClassifierFunc(func(title, _ string) (schema.PatchClassification, bool) {
		if strings.HasPrefix(title, "v") {
			return schema.PatchClassification{IsPatch: true, IsMajor: true, Reason: schema.MajorKeywords}, true
		}
		return schema.PatchClassification{}, false
	})

	got, ok := c.Classify("v2", "")
	assert.True(t, ok)
	assert.True(t, got.IsMajor)

	_, ok = c.Classify("news", "")
	assert.False(t, ok)
}

func TestClassifyDeterministic(t *testing.T) {
	a, okA := Default.Classify("Update 3", "new map and small fix")
	b, okB := Default.Classify("Update 3", "new map and small fix")
	assert.Equal(t, okA, okB)
	assert.Equal(t, a, b)
}

func FuzzClassify(f *testing.F) {
	f.Add("Major Update", "new map")
	f.Add("Hotfix", "")
	f.Add("Roadmap", "plans")
	f.Fuzz(func(t *testing.T, title, body string) {
		got, ok := Default.Classify(title, body)
		if !ok {
			assert.Equal(t, schema.PatchClassification{}, got)
			return
		}
		assert.True(t, got.IsPatch)
		switch got.Reason {
		case schema.MajorKeywords, schema.DefaultMajor:
			assert.True(t, got.IsMajor)
		case schema.MinorKeywords, schema.DefaultMinor:
			assert.False(t, got.IsMajor)
		default:
			t.Fatalf("unexpected reason %q", got.Reason)
		}
	})
}
