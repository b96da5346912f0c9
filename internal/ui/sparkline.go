package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderBatterySparkline draws battery charge percentages on a fixed 0-100
// scale, colored by the latest charge band.
func RenderBatterySparkline(data []float64, width int) string {
	data = tail(data, width)
	if len(data) == 0 {
		return ""
	}
	return renderSparkline(data, 0, 100, ChargeColor)
}

func tail(data []float64, width int) []float64 {
	if len(data) == 0 || width <= 0 {
		return nil
	}
	if len(data) > width {
		return data[len(data)-width:]
	}
	return data
}

func renderSparkline(data []float64, lo, hi float64, color func(float64) lipgloss.Color) string {
	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	valueRange := hi - lo

	for _, v := range data {
		level := numLevels / 2
		if valueRange > 0 {
			normalized := (v - lo) / valueRange
			level = int(normalized * float64(numLevels-1))
			level = max(0, min(level, numLevels-1))
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	style := lipgloss.NewStyle().Foreground(color(data[len(data)-1]))
	return style.Render(sb.String())
}
