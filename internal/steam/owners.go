package steam

import (
	"strconv"
	"strings"
)

var ownerRangeSeparators = strings.NewReplacer("..", "-", "–", "-", "—", "-")

// ParseOwners turns an owners text into a number.
// A range "a - b" (also "a .. b" or an en dash) yields its midpoint; a single number yields itself.
func ParseOwners(text string) *float64 {
	text = strings.TrimSpace(ownerRangeSeparators.Replace(text))
	if text == "" {
		return nil
	}

	parts := strings.Split(text, "-")
	switch len(parts) {
	case 1:
		return parseCount(parts[0])
	case 2:
		lo, hi := parseCount(parts[0]), parseCount(parts[1])
		if lo == nil || hi == nil {
			return nil
		}
		mid := (*lo + *hi) / 2
		return &mid
	default:
		return nil
	}
}

// parseCount reads a number written with thousands separators.
func parseCount(text string) *float64 {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	text = strings.ReplaceAll(text, " ", "")
	if text == "" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
