// Package tier describes the five model-size tiers a run can select and the
// display-only duration estimate derived from each tier's speed factor.
package tier

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"batchscribe/internal/services"
)

// Tier identifies a model size. The zero value is invalid.
type Tier int

const (
	Tiny Tier = iota + 1
	Base
	Small
	Medium
	Large
)

// InvalidSelectorMessage is the user-facing text for a bad tier selector.
const InvalidSelectorMessage = "invalid model number. Choose between 1 and 5."

type spec struct {
	name        string
	speedFactor float64
	melBins     int
}

var specs = map[Tier]spec{
	Tiny:   {name: "tiny", speedFactor: 0.5, melBins: 80},
	Base:   {name: "base", speedFactor: 1, melBins: 80},
	Small:  {name: "small", speedFactor: 2, melBins: 80},
	Medium: {name: "medium", speedFactor: 3, melBins: 80},
	Large:  {name: "large", speedFactor: 5, melBins: 128},
}

// All lists the tiers in selector order.
func All() []Tier {
	return []Tier{Tiny, Base, Small, Medium, Large}
}

// Parse maps a selector "1".."5" to a tier.
func Parse(selector string) (Tier, error) {
	switch strings.TrimSpace(selector) {
	case "1":
		return Tiny, nil
	case "2":
		return Base, nil
	case "3":
		return Small, nil
	case "4":
		return Medium, nil
	case "5":
		return Large, nil
	}
	return 0, services.Wrap(services.ErrConfiguration, "cli", "parse model selector", InvalidSelectorMessage, fmt.Errorf("selector %q", selector))
}

// Valid reports whether t is one of the five known tiers.
func (t Tier) Valid() bool {
	_, ok := specs[t]
	return ok
}

func (t Tier) String() string {
	if s, ok := specs[t]; ok {
		return s.name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Title returns the display name, e.g. "Medium".
func (t Tier) Title() string {
	return cases.Title(language.English).String(t.String())
}

// Selector returns the CLI selector for t.
func (t Tier) Selector() string {
	return fmt.Sprintf("%d", int(t))
}

// SpeedFactor is the relative throughput used by Estimate.
func (t Tier) SpeedFactor() float64 {
	return specs[t].speedFactor
}

// MelBins is the mel-spectrogram resolution the tier's model expects.
func (t Tier) MelBins() int {
	return specs[t].melBins
}

// Estimate returns durationSeconds divided by the tier's speed factor. The
// result is informational only.
func Estimate(durationSeconds int, t Tier) time.Duration {
	factor := t.SpeedFactor()
	if factor <= 0 || durationSeconds <= 0 {
		return 0
	}
	seconds := float64(durationSeconds) / factor
	return time.Duration(seconds * float64(time.Second))
}
