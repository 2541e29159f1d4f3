package bot

import (
	"fmt"
	"strings"
)

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelGood BotLevel = iota
	BotLevelSmart
)

// ParseLevel maps a difficulty name to a level.
func ParseLevel(s string) (BotLevel, error) {
	switch strings.ToLower(s) {
	case "good", "easy", "":
		return BotLevelGood, nil
	case "smart", "hard":
		return BotLevelSmart, nil
	default:
		return 0, fmt.Errorf("unknown bot level: %q", s)
	}
}

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelGood:
		return &GoodBot{}, nil
	case BotLevelSmart:
		return &SmartBot{Tuning: DefaultTuning}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
