package contract

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseAppID parses a single Steam app id.
func ParseAppID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid app id '%s'", s)
	}
	return id, nil
}

// ParseAppIDList parses a comma-separated list of app ids. Empty items are skipped.
func ParseAppIDList(s string) ([]int64, error) {
	var ids []int64
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := ParseAppID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ReadAppIDs reads one app id per line. Blank and non-numeric lines are skipped.
func ReadAppIDs(r io.Reader) ([]int64, error) {
	var ids []int64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := ParseAppID(line)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, scanner.Err()
}

// DedupeAppIDs drops repeated ids, keeping the first occurrence.
func DedupeAppIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
