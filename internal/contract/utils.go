package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/patchpanel/schema"
)

// Group label constants.
const (
	TreatedValue = "Treated"
	ControlValue = "Control"
)

// Color variables for console output.
var (
	TreatedColor = color.New(color.FgMagenta, color.Bold) // treated games carry an event
	ControlColor = color.New(color.FgCyan)                // control games use their own latest month
)

// GetPlainLabel returns a plain text label for a treatment flag.
func GetPlainLabel(treatment int) string {
	if treatment == 1 {
		return TreatedValue
	}
	return ControlValue
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(treatment int) string {
	text := GetPlainLabel(treatment)
	if text == TreatedValue {
		return TreatedColor.Sprint(text)
	}
	return ControlColor.Sprint(text)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".patchpanel_cache.db"
	}
	return filepath.Join(homeDir, ".patchpanel_cache.db")
}

// GetRunDBFilePath returns the path to the SQLite DB file for run storage.
func GetRunDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".patchpanel_runs.db"
	}
	return filepath.Join(homeDir, ".patchpanel_runs.db")
}

// TruncateName truncates a display name to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there's room for the "..." and at least one character.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// TruncateBody cuts text to at most schema.MaxRecordBodyLength characters.
func TruncateBody(s string) string {
	runes := []rune(s)
	if len(runes) <= schema.MaxRecordBodyLength {
		return s
	}
	return string(runes[:schema.MaxRecordBodyLength])
}
