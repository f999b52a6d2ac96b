package presentation

import (
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kozaktomas/facefit/internal/faceapi"
)

// ResultView is everything the results page shows for one analysis.
type ResultView struct {
	Glyph           string
	Shape           string
	ShapeTitle      string
	LandmarksText   string
	Ratios          []RatioView
	Recommendations []RecommendationView
	ShoppingTips    []string
}

// RatioView is one labelled face ratio.
type RatioView struct {
	Label string
	Value string
}

// RecommendationView is one recommendation with its confidence presentation.
type RecommendationView struct {
	Style       string
	Name        string
	Description string
	Reason      string
	Confidence  float64
	Percent     int
	Width       string
	Color       string
	Label       string
}

// BuildResultView maps a result to its view. Recommendations keep server order.
func BuildResultView(result *faceapi.AnalysisResult) *ResultView {
	if result == nil {
		return nil
	}

	view := &ResultView{
		Glyph:           ShapeGlyph(result.FaceShape),
		Shape:           result.FaceShape,
		ShapeTitle:      cases.Title(language.English).String(result.FaceShape),
		LandmarksText:   fmt.Sprintf("%d facial landmarks", result.LandmarksDetected),
		Recommendations: make([]RecommendationView, 0, len(result.Recommendations)),
		ShoppingTips:    ShoppingTips(),
	}

	if details := result.AnalysisDetails; details != nil {
		view.Ratios = []RatioView{
			{Label: "Face Ratio", Value: formatRatio(details.Ratios.FaceRatio)},
			{Label: "Jaw to Cheek", Value: formatRatio(details.Ratios.JawToCheek)},
			{Label: "Forehead to Cheek", Value: formatRatio(details.Ratios.ForeheadToCheek)},
		}
	}

	for _, rec := range result.Recommendations {
		view.Recommendations = append(view.Recommendations, RecommendationView{
			Style:       rec.Style,
			Name:        rec.Name,
			Description: rec.Description,
			Reason:      rec.Reason,
			Confidence:  rec.Confidence,
			Percent:     ConfidencePercent(rec.Confidence),
			Width:       ConfidenceWidth(rec.Confidence),
			Color:       ConfidenceColor(rec.Confidence),
			Label:       ConfidenceLabel(rec.Confidence),
		})
	}
	return view
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
