package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"herowiz/internal/domain"
)

type GameConfig struct {
	MinPlayers           int `json:"min_players"`
	MaxPlayers           int `json:"max_players"`
	HandSizeDealt        int `json:"hand_size_dealt"`
	MaxHandSize          int `json:"max_hand_size"`
	QuestThreshold       int `json:"quest_threshold"`
	SpellcasterThreshold int `json:"spellcaster_threshold"`
	// CatalogPath points at an alternate JSON deck; empty uses the standard deck.
	CatalogPath string `json:"catalog_path"`

	NoticeDisplaySeconds   int `json:"notice_display_seconds"`
	DisconnectGraceSeconds int `json:"disconnect_grace_seconds"`
	RequestStateDelayMs    int `json:"request_state_delay_ms"`
}

// Defaults returns the standard game settings.
func Defaults() GameConfig {
	return GameConfig{
		MinPlayers:             2,
		MaxPlayers:             5,
		HandSizeDealt:          3,
		MaxHandSize:            5,
		QuestThreshold:         6,
		SpellcasterThreshold:   5,
		NoticeDisplaySeconds:   3,
		DisconnectGraceSeconds: 30,
		RequestStateDelayMs:    800,
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path. Fields
// missing from the file keep their defaults.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c := Defaults()
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		if err := c.Validate(); err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or the defaults when
// nothing was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		d := Defaults()
		return &d
	}
	return cfg
}

// Validate rejects settings the engine cannot play with.
func (c *GameConfig) Validate() error {
	switch {
	case c.MinPlayers < 2:
		return fmt.Errorf("min_players must be at least 2, got %d", c.MinPlayers)
	case c.MaxPlayers < c.MinPlayers:
		return fmt.Errorf("max_players %d is below min_players %d", c.MaxPlayers, c.MinPlayers)
	case c.HandSizeDealt < 0 || c.MaxHandSize < c.HandSizeDealt:
		return fmt.Errorf("hand sizes out of range: dealt %d, max %d", c.HandSizeDealt, c.MaxHandSize)
	case c.QuestThreshold <= 0 || c.SpellcasterThreshold <= 0:
		return fmt.Errorf("quest thresholds must be positive")
	}
	return nil
}

// Rules builds the engine settings, loading the catalog when one is named.
func (c *GameConfig) Rules() (*domain.Rules, error) {
	r := domain.DefaultRules()
	if c.CatalogPath != "" {
		cat, err := domain.LoadCatalog(c.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		r.Catalog = cat
	}
	r.MinPlayers = c.MinPlayers
	r.MaxPlayers = c.MaxPlayers
	r.HandSizeDealt = c.HandSizeDealt
	r.MaxHandSize = c.MaxHandSize
	r.QuestThreshold = c.QuestThreshold
	r.SpellcasterThreshold = c.SpellcasterThreshold
	return r, nil
}

func (c *GameConfig) NoticeDisplay() time.Duration {
	return time.Duration(c.NoticeDisplaySeconds) * time.Second
}

func (c *GameConfig) DisconnectGrace() time.Duration {
	return time.Duration(c.DisconnectGraceSeconds) * time.Second
}

func (c *GameConfig) RequestStateDelay() time.Duration {
	return time.Duration(c.RequestStateDelayMs) * time.Millisecond
}
