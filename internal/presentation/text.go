package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/kozaktomas/facefit/internal/faceapi"
)

const barWidth = 20

// RenderText writes a plain-text rendition of result for terminals.
func RenderText(w io.Writer, result *faceapi.AnalysisResult) error {
	view := BuildResultView(result)
	if view == nil {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  Face shape: %s\n", view.Glyph, view.ShapeTitle)
	fmt.Fprintf(&b, "   Analyzed using %s\n", view.LandmarksText)

	if len(view.Ratios) > 0 {
		b.WriteString("\nFace Measurements\n")
		for _, r := range view.Ratios {
			fmt.Fprintf(&b, "  %-18s %s\n", r.Label+":", r.Value)
		}
	}

	if len(view.Recommendations) > 0 {
		b.WriteString("\nRecommended Glasses\n")
		for i, rec := range view.Recommendations {
			filled := min(barWidth, max(0, rec.Percent*barWidth/100))
			bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
			fmt.Fprintf(&b, "  %d. %s (%s) - %s\n", i+1, rec.Name, rec.Style, rec.Label)
			fmt.Fprintf(&b, "     %s %d%%\n", bar, rec.Percent)
			if rec.Description != "" {
				fmt.Fprintf(&b, "     %s\n", rec.Description)
			}
			if rec.Reason != "" {
				fmt.Fprintf(&b, "     Why it works: %s\n", rec.Reason)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
