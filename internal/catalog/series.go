package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// SeriesDef describes one card series in the catalog config file.
type SeriesDef struct {
	Category  string  `json:"category"`
	Cards     int     `json:"cards"`
	Weight    float64 `json:"weight"`
	BWeight   float64 `json:"b_weight"`
	CraftCost int     `json:"craft_cost"`
	NoBSide   bool    `json:"no_b_side,omitempty"`
}

// PuzzleDef describes one puzzle in the catalog config file.
type PuzzleDef struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Pieces      int     `json:"pieces"`
}

// Config is the parsed catalog definition synced into the database on boot.
type Config struct {
	Series  []SeriesDef `json:"series"`
	Puzzles []PuzzleDef `json:"puzzles"`
}

// LoadConfig reads and validates a catalog definition file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse catalog config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for holes that would corrupt the catalog.
func (c *Config) Validate() error {
	if len(c.Series) == 0 {
		return fmt.Errorf("catalog config has no series: %w", domain.ErrInvalidInput)
	}
	seen := map[string]bool{}
	for _, s := range c.Series {
		if s.Category == "" || s.Cards < 1 {
			return fmt.Errorf("series %q needs a category and at least one card: %w", s.Category, domain.ErrInvalidInput)
		}
		if seen[s.Category] {
			return fmt.Errorf("duplicate series %q: %w", s.Category, domain.ErrInvalidInput)
		}
		seen[s.Category] = true
		if s.Weight < 0 || s.BWeight < 0 {
			return fmt.Errorf("series %q has negative weight: %w", s.Category, domain.ErrInvalidInput)
		}
		if !s.NoBSide && s.CraftCost < 1 {
			return fmt.Errorf("series %q needs a craft cost for its b side: %w", s.Category, domain.ErrInvalidInput)
		}
	}
	names := map[string]bool{}
	for _, p := range c.Puzzles {
		if p.Name == "" || p.Pieces < 1 {
			return fmt.Errorf("puzzle %q needs a name and at least one piece: %w", p.Name, domain.ErrInvalidInput)
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate puzzle %q: %w", p.Name, domain.ErrInvalidInput)
		}
		names[p.Name] = true
	}
	return nil
}
