package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/patchpanel/schema"
)

// WriteClassification prints a single classification verdict.
// JSON mode writes the verdict object; every other mode prints a short summary line.
func WriteClassification(w io.Writer, verdict schema.PatchClassification, mode schema.OutputMode) error {
	if mode == schema.JSONOut {
		return writeJSON(w, verdict)
	}
	if !verdict.IsPatch {
		_, err := fmt.Fprintln(w, "not a patch")
		return err
	}
	kind := "minor"
	if verdict.IsMajor {
		kind = "major"
	}
	_, err := fmt.Fprintf(w, "%s patch (%s)\n", kind, verdict.Reason)
	return err
}
