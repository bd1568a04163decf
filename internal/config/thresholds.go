package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/vytor/chesscoach/internal/analysis"
)

// ThresholdsFile is the TOML layout of the analysis thresholds file.
// Every key is optional.
type ThresholdsFile struct {
	Classification ClassificationConfig `toml:"classification"`
	Detection      DetectionConfig      `toml:"detection"`
	Phases         PhasesConfig         `toml:"phases"`
}

type ClassificationConfig struct {
	ExcellentMax  *int `toml:"excellent-max"`
	GoodMax       *int `toml:"good-max"`
	InaccuracyMax *int `toml:"inaccuracy-max"`
	MistakeMax    *int `toml:"mistake-max"`
}

type DetectionConfig struct {
	SwingThreshold   *int `toml:"swing-threshold"`
	WinningThreshold *int `toml:"winning-threshold"`
	TacticGain       *int `toml:"tactic-gain"`
	FoundMaxLoss     *int `toml:"found-max-loss"`
	MissedMinLoss    *int `toml:"missed-min-loss"`
	MateThreshold    *int `toml:"mate-threshold"`
}

type PhasesConfig struct {
	OpeningEnd    *int `toml:"opening-end"`
	MiddlegameEnd *int `toml:"middlegame-end"`
}

// LoadThresholds applies the file at path on top of base. A missing file
// returns base unchanged.
func LoadThresholds(path string, base analysis.Thresholds) (analysis.Thresholds, error) {
	if path == "" {
		return base, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, fmt.Errorf("failed to stat thresholds file: %w", err)
	}

	var file ThresholdsFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return base, fmt.Errorf("failed to decode thresholds file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("unknown keys in thresholds file: %v", undecoded)
	}

	t := file.Apply(base)
	if err := t.Validate(); err != nil {
		return base, fmt.Errorf("invalid thresholds in %s: %w", path, err)
	}
	return t, nil
}

// Apply overrides the fields of t that are set in f.
func (f ThresholdsFile) Apply(t analysis.Thresholds) analysis.Thresholds {
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&t.ExcellentMax, f.Classification.ExcellentMax)
	set(&t.GoodMax, f.Classification.GoodMax)
	set(&t.InaccuracyMax, f.Classification.InaccuracyMax)
	set(&t.MistakeMax, f.Classification.MistakeMax)

	set(&t.SwingThreshold, f.Detection.SwingThreshold)
	set(&t.WinningThreshold, f.Detection.WinningThreshold)
	set(&t.TacticGain, f.Detection.TacticGain)
	set(&t.FoundMaxLoss, f.Detection.FoundMaxLoss)
	set(&t.MissedMinLoss, f.Detection.MissedMinLoss)
	set(&t.MateThreshold, f.Detection.MateThreshold)

	set(&t.OpeningEnd, f.Phases.OpeningEnd)
	set(&t.MiddlegameEnd, f.Phases.MiddlegameEnd)
	return t
}
