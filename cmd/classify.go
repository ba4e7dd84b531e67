package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/huangsam/patchpanel/core/classify"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/internal/outwriter"
	"github.com/huangsam/patchpanel/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// classifyCmd classifies ad-hoc text without fetching anything.
var classifyCmd = &cobra.Command{
	Use:   "classify [title] [body]",
	Short: "Classify a single news item as a major or minor patch.",
	Long: `Run the patch classifier on a title and body supplied on the command line.

The classifier looks for patch keywords first, then decides between major and minor
from indicator phrases. Ambiguous patches default to major unless they read like a
bug fix or hotfix.

Examples:
  patchpanel classify "Hotfix 1.2.1" "Fixed a crash on startup"
  patchpanel classify --title "Major Update" --body "New map and new weapons" --output json`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		title, body, err := classifyInput(cmd, args)
		if err != nil {
			contract.LogFatal("Cannot classify", err)
		}
		verdict, _ := classify.Default.Classify(title, body)
		mode := schema.OutputMode(strings.ToLower(viper.GetString("output")))
		if err := outwriter.WriteClassification(os.Stdout, verdict, mode); err != nil {
			contract.LogFatal("Cannot write classification", err)
		}
	},
}

// classifyInput prefers flags over positional arguments.
func classifyInput(cmd *cobra.Command, args []string) (title, body string, err error) {
	title, _ = cmd.Flags().GetString("title")
	body, _ = cmd.Flags().GetString("body")
	if title == "" && len(args) > 0 {
		title = args[0]
	}
	if body == "" && len(args) > 1 {
		body = args[1]
	}
	if strings.TrimSpace(title) == "" && strings.TrimSpace(body) == "" {
		return "", "", errors.New("title or body is required")
	}
	return title, body, nil
}
