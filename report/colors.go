package report

import (
	"fmt"
	"math"

	"github.com/uyouii/powercurve-sensitivity/model"
)

// category colours, blue for the lowest quantile through red for the highest
var categoryColors = map[model.Category]string{
	model.VeryLow:  "#0000ff",
	model.Low:      "#4400bb",
	model.Medium:   "#880088",
	model.High:     "#bb0044",
	model.VeryHigh: "#ff0000",
}

const unassignedColor = "#808080"

func CategoryColor(c model.Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return unassignedColor
}

type LegendEntry struct {
	Category model.Category `json:"category"`
	Label    string         `json:"label"`
	Color    string         `json:"color"`
}

// Legend lists the categories in order, lowest quantile first.
func Legend() []LegendEntry {
	res := make([]LegendEntry, 0, len(model.Categories))
	for _, c := range model.Categories {
		res = append(res, LegendEntry{Category: c, Label: c.String(), Color: CategoryColor(c)})
	}
	return res
}

// Percent renders a ratio as a percentage with two decimals, "-" for NaN.
func Percent(ratio float64) string {
	if math.IsNaN(ratio) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", ratio*100)
}
