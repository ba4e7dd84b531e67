// Package classify decides whether a news item is a patch and how big it is.
package classify

import (
	"strings"

	"github.com/huangsam/patchpanel/schema"
)

// Classifier labels a news item. ok is false when the item is not a patch.
type Classifier interface {
	Classify(title, body string) (schema.PatchClassification, bool)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(title, body string) (schema.PatchClassification, bool)

// Classify calls f(title, body).
func (f ClassifierFunc) Classify(title, body string) (schema.PatchClassification, bool) {
	return f(title, body)
}

// Keyword sets used by the default classifier.
var (
	PatchKeywords = []string{
		"patch", "update", "hotfix", "fix", "bug", "balance", "expansion", "dlc",
		"content update", "new feature", "maintenance", "adjustment", "tweak", "improvement",
	}

	MajorIndicators = []string{
		"major update", "major patch", "expansion", "new content", "new feature",
		"new game mode", "new map", "new character", "gameplay change", "mechanic change",
		"overhaul", "substantial", "significant", "massive", "complete rework",
	}

	MinorIndicators = []string{
		"hotfix", "bug fix", "small fix", "minor", "performance", "cosmetic", "visual",
		"balance adjustment", "tweak", "adjustment", "stability",
	}

	// DefaultMinorKeywords send an otherwise unclassified patch to MINOR.
	DefaultMinorKeywords = []string{"bug fix", "hotfix"}
)

// KeywordClassifier matches lowercase substrings of "title body".
// Unclassified patches default to MAJOR unless a DefaultMinor keyword appears.
type KeywordClassifier struct {
	Patch        []string
	Major        []string
	Minor        []string
	DefaultMinor []string
}

// NewKeywordClassifier returns a classifier over the standard keyword sets.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		Patch:        PatchKeywords,
		Major:        MajorIndicators,
		Minor:        MinorIndicators,
		DefaultMinor: DefaultMinorKeywords,
	}
}

// Classify applies the keyword sets with the minor / major / default tie-break.
func (k *KeywordClassifier) Classify(title, body string) (schema.PatchClassification, bool) {
	text := strings.ToLower(title + " " + body)
	if !containsAny(text, k.Patch) {
		return schema.PatchClassification{}, false
	}

	major := containsAny(text, k.Major)
	minor := containsAny(text, k.Minor)
	switch {
	case minor && !major:
		return patch(false, schema.MinorKeywords), true
	case major:
		return patch(true, schema.MajorKeywords), true
	case containsAny(text, k.DefaultMinor):
		return patch(false, schema.DefaultMinor), true
	default:
		return patch(true, schema.DefaultMajor), true
	}
}

func patch(major bool, reason schema.ReasonCode) schema.PatchClassification {
	return schema.PatchClassification{IsPatch: true, IsMajor: major, Reason: reason}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Default is the classifier used when none is configured.
var Default Classifier = NewKeywordClassifier()
