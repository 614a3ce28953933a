package risk

import "strings"

// Level is the qualitative band for a risk score.
type Level string

const (
	LevelMinimal  Level = "MINIMAL"
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

func (l Level) Valid() bool {
	switch l {
	case LevelMinimal, LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	}
	return false
}

// LevelOf maps a score to its band. Thresholds are 20/40/60/80.
func LevelOf(score int) Level {
	switch {
	case score < 20:
		return LevelMinimal
	case score < 40:
		return LevelLow
	case score < 60:
		return LevelMedium
	case score < 80:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// meterCells is the fixed width of the meter bar; each cell covers 10 points.
const meterCells = 10

// levelSymbols annotate the meter with the band at a glance.
var levelSymbols = map[Level]string{
	LevelMinimal:  "🟢",
	LevelLow:      "🟡",
	LevelMedium:   "🟠",
	LevelHigh:     "🔴",
	LevelCritical: "🚨",
}

// Meter renders a fixed-width bar for the score: score/10 filled cells, the
// rest empty, followed by the level symbol. Filled plus empty is always 10.
func Meter(score int) string {
	filled := clamp(score/10, 0, meterCells)
	return strings.Repeat("█", filled) + strings.Repeat("░", meterCells-filled) + " " + levelSymbols[LevelOf(score)]
}
