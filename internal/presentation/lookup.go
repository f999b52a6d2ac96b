// Package presentation renders analysis results. Everything here is a pure
// function of its input.
package presentation

import (
	_ "embed"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presentation.yaml
var tableYAML []byte

type table struct {
	Glyphs       map[string]string `yaml:"glyphs"`
	DefaultGlyph string            `yaml:"default_glyph"`
	ShoppingTips []string          `yaml:"shopping_tips"`
}

var lookup = mustLoadTable(tableYAML)

func mustLoadTable(data []byte) table {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		// Embedded file, only a broken build gets here
		panic("failed to unmarshal embedded presentation.yaml: " + err.Error())
	}
	return t
}

// Confidence colors.
const (
	ColorHigh   = "#28a745"
	ColorMedium = "#ffc107"
	ColorLow    = "#dc3545"
)

type labelTier struct {
	min   float64
	label string
}

var labelTiers = []labelTier{
	{0.9, "Excellent Match"},
	{0.8, "Great Match"},
	{0.7, "Good Match"},
	{0.6, "Fair Match"},
}

// PoorMatch is the label for confidences below every tier.
const PoorMatch = "Poor Match"

// ShapeGlyph returns the display glyph for a face shape label.
func ShapeGlyph(shape string) string {
	if glyph, ok := lookup.Glyphs[strings.ToLower(strings.TrimSpace(shape))]; ok {
		return glyph
	}
	return lookup.DefaultGlyph
}

// ConfidenceColor buckets a confidence into three colors.
func ConfidenceColor(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return ColorHigh
	case confidence >= 0.6:
		return ColorMedium
	default:
		return ColorLow
	}
}

// ConfidenceLabel buckets a confidence into five qualitative labels.
func ConfidenceLabel(confidence float64) string {
	for _, tier := range labelTiers {
		if confidence >= tier.min {
			return tier.label
		}
	}
	return PoorMatch
}

// ConfidencePercent returns the confidence as a rounded integer percentage.
func ConfidencePercent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

// ConfidenceWidth returns the CSS width of the confidence bar.
func ConfidenceWidth(confidence float64) string {
	return strconv.FormatFloat(confidence*100, 'f', -1, 64) + "%"
}

// ShoppingTips returns the general advice shown under the recommendations.
func ShoppingTips() []string {
	return append([]string(nil), lookup.ShoppingTips...)
}
