/*
Package world
File: world.go
Description:
    Defines the static world configuration loaded from 'world.yaml': trade
    locations, tradeable items, the event-type catalog, and the balance block.
    This file is strictly schema + lookup helpers; all simulation logic lives
    in the clock/event/market/sim packages that read it.
*/

package world

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Balance stores the global tuning variables from YAML.
// These values control survival decay, the economy, and travel pace.
type Balance struct {
	StartingGold int `yaml:"starting_gold" json:"starting_gold"` // Gold given on a new game

	// Survival decay, applied once per 5-game-minute interval.
	HungerDecayPerInterval  float64 `yaml:"hunger_decay_per_interval" json:"hunger_decay_per_interval"`
	ThirstDecayPerInterval  float64 `yaml:"thirst_decay_per_interval" json:"thirst_decay_per_interval"`
	StaminaRegenPerInterval float64 `yaml:"stamina_regen_per_interval" json:"stamina_regen_per_interval"`
	HealthRegenPerInterval  float64 `yaml:"health_regen_per_interval" json:"health_regen_per_interval"`
	WellFedRegenBonus       float64 `yaml:"well_fed_regen_bonus" json:"well_fed_regen_bonus"`
	CriticalNeedThreshold   float64 `yaml:"critical_need_threshold" json:"critical_need_threshold"`   // Below this, no health regen
	WellFedThreshold        float64 `yaml:"well_fed_threshold" json:"well_fed_threshold"`             // Above this, bonus regen
	StarvationDrainPercent  float64 `yaml:"starvation_drain_percent" json:"starvation_drain_percent"` // Fraction of MaxHealth per interval

	// Economy.
	RandomEventChance   float64 `yaml:"random_event_chance" json:"random_event_chance"`     // Roll threshold per cooldown window
	RestockHour         int     `yaml:"restock_hour" json:"restock_hour"`                   // Daily restock boundary (06:00)
	BaseTravelPace      float64 `yaml:"base_travel_pace" json:"base_travel_pace"`           // Game-minutes per distance unit
	SeasonDecayModifier float64 `yaml:"season_decay_modifier" json:"season_decay_modifier"` // Extra decay in harsh seasons
}

// Tier buckets a location by market size. It drives both the stock ceiling
// and the daily restock range.
type Tier string

const (
	TierTiny   Tier = "tiny"
	TierSmall  Tier = "small"
	TierMedium Tier = "medium"
	TierLarge  Tier = "large"
	TierGrand  Tier = "grand"
)

// MaxStock returns the per-item stock ceiling for the tier.
func (t Tier) MaxStock() int {
	switch t {
	case TierTiny:
		return 20
	case TierSmall:
		return 35
	case TierMedium:
		return 50
	case TierLarge:
		return 75
	case TierGrand:
		return 100
	default:
		return 35
	}
}

// RestockRange returns the min/max units added per item on a daily restock.
func (t Tier) RestockRange() (int, int) {
	switch t {
	case TierTiny:
		return 2, 4
	case TierSmall:
		return 2, 6
	case TierMedium:
		return 3, 7
	case TierLarge:
		return 4, 9
	case TierGrand:
		return 5, 10
	default:
		return 2, 6
	}
}

// Location is a static trade node on the world map.
type Location struct {
	Key         string   `yaml:"key" json:"key"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Tier        Tier     `yaml:"tier" json:"tier"`
	Coordinates []int    `yaml:"coordinates" json:"coordinates"` // [X, Y] on the map grid
	Specialties []string `yaml:"specialties" json:"specialties"` // Item keys seeded/refreshed here
}

// Item is a tradeable good.
type Item struct {
	Key       string `yaml:"key" json:"key"`
	Name      string `yaml:"name" json:"name"`
	BasePrice int    `yaml:"base_price" json:"base_price"` // Baseline before market multipliers
}

// EventType is one entry of the static event catalog. Effects is a free-form
// key -> value map in YAML; the event package decodes it into typed effects.
type EventType struct {
	Key             string                 `yaml:"key" json:"key"`
	Name            string                 `yaml:"name" json:"name"`
	Description     string                 `yaml:"description" json:"description"`
	Effects         map[string]interface{} `yaml:"effects" json:"effects"`
	DurationMinutes int                    `yaml:"duration_minutes" json:"duration_minutes"`
	TriggerChance   float64                `yaml:"trigger_chance" json:"trigger_chance"` // Weight for the random roll
	Silent          bool                   `yaml:"silent" json:"silent"`                 // Suppresses the UI notification
}

// PlayerConfig seeds a fresh player.
type PlayerConfig struct {
	StartLocation string  `yaml:"start_location" json:"start_location"`
	MaxHealth     float64 `yaml:"max_health" json:"max_health"`
	MaxHunger     float64 `yaml:"max_hunger" json:"max_hunger"`
	MaxThirst     float64 `yaml:"max_thirst" json:"max_thirst"`
	MaxStamina    float64 `yaml:"max_stamina" json:"max_stamina"`
}

// Config is the root configuration struct, mapping to the entire 'world.yaml'.
type Config struct {
	BalanceConfig Balance      `yaml:"balance" json:"balance"`
	PlayerConfig  PlayerConfig `yaml:"player" json:"player"`
	Locations     []Location   `yaml:"locations" json:"locations"`
	Items         []Item       `yaml:"items" json:"items"`
	EventTypes    []EventType  `yaml:"event_types" json:"event_types"`
}

// Load reads and validates a world configuration file.
func Load(path string) (*Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return nil, fmt.Errorf("parse world config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the minimum the simulation needs to boot.
func (c *Config) Validate() error {
	if len(c.Locations) == 0 {
		return fmt.Errorf("world config: no locations defined")
	}
	if len(c.Items) == 0 {
		return fmt.Errorf("world config: no items defined")
	}
	if c.PlayerConfig.StartLocation != "" && c.Location(c.PlayerConfig.StartLocation) == nil {
		return fmt.Errorf("world config: start location %q not defined", c.PlayerConfig.StartLocation)
	}
	for _, loc := range c.Locations {
		for _, spec := range loc.Specialties {
			if c.Item(spec) == nil {
				return fmt.Errorf("world config: location %q lists unknown specialty %q", loc.Key, spec)
			}
		}
	}
	return nil
}

// Location retrieves a Location by key. Returns nil if not found.
func (c *Config) Location(key string) *Location {
	for i := range c.Locations {
		if c.Locations[i].Key == key {
			return &c.Locations[i]
		}
	}
	return nil
}

// Item retrieves an Item by key. Returns nil if not found.
func (c *Config) Item(key string) *Item {
	for i := range c.Items {
		if c.Items[i].Key == key {
			return &c.Items[i]
		}
	}
	return nil
}

// Distance computes the map distance between two locations, rounded to the
// nearest integer for game simplicity.
func Distance(a, b *Location) int {
	if a == nil || b == nil || len(a.Coordinates) < 2 || len(b.Coordinates) < 2 {
		return 0
	}
	dx := float64(b.Coordinates[0] - a.Coordinates[0])
	dy := float64(b.Coordinates[1] - a.Coordinates[1])
	return int(math.Round(math.Sqrt(dx*dx + dy*dy)))
}

// Season maps the month onto a coarse 4-season cycle. Winter and summer are
// the harsh seasons that accelerate hunger/thirst decay.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// SeasonForMonth returns the season for a 1-based month.
func SeasonForMonth(month int) Season {
	switch {
	case month >= 3 && month <= 5:
		return SeasonSpring
	case month >= 6 && month <= 8:
		return SeasonSummer
	case month >= 9 && month <= 11:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}

// DefaultBalance returns the tuning the game ships with. YAML values override
// field by field; zero-valued fields fall back to these.
func DefaultBalance() Balance {
	return Balance{
		StartingGold:            100,
		HungerDecayPerInterval:  0.5,
		ThirstDecayPerInterval:  0.7,
		StaminaRegenPerInterval: 1.0,
		HealthRegenPerInterval:  0.25,
		WellFedRegenBonus:       0.25,
		CriticalNeedThreshold:   0.25,
		WellFedThreshold:        0.75,
		StarvationDrainPercent:  0.00694,
		RandomEventChance:       0.05,
		RestockHour:             6,
		BaseTravelPace:          12.0,
		SeasonDecayModifier:     1.25,
	}
}

// EffectiveBalance merges the loaded balance over the defaults.
func (c *Config) EffectiveBalance() Balance {
	b := DefaultBalance()
	loaded := c.BalanceConfig

	if loaded.StartingGold > 0 {
		b.StartingGold = loaded.StartingGold
	}
	if loaded.HungerDecayPerInterval > 0 {
		b.HungerDecayPerInterval = loaded.HungerDecayPerInterval
	}
	if loaded.ThirstDecayPerInterval > 0 {
		b.ThirstDecayPerInterval = loaded.ThirstDecayPerInterval
	}
	if loaded.StaminaRegenPerInterval > 0 {
		b.StaminaRegenPerInterval = loaded.StaminaRegenPerInterval
	}
	if loaded.HealthRegenPerInterval > 0 {
		b.HealthRegenPerInterval = loaded.HealthRegenPerInterval
	}
	if loaded.WellFedRegenBonus > 0 {
		b.WellFedRegenBonus = loaded.WellFedRegenBonus
	}
	if loaded.CriticalNeedThreshold > 0 {
		b.CriticalNeedThreshold = loaded.CriticalNeedThreshold
	}
	if loaded.WellFedThreshold > 0 {
		b.WellFedThreshold = loaded.WellFedThreshold
	}
	if loaded.StarvationDrainPercent > 0 {
		b.StarvationDrainPercent = loaded.StarvationDrainPercent
	}
	if loaded.RandomEventChance > 0 {
		b.RandomEventChance = loaded.RandomEventChance
	}
	if loaded.RestockHour > 0 {
		b.RestockHour = loaded.RestockHour
	}
	if loaded.BaseTravelPace > 0 {
		b.BaseTravelPace = loaded.BaseTravelPace
	}
	if loaded.SeasonDecayModifier > 0 {
		b.SeasonDecayModifier = loaded.SeasonDecayModifier
	}
	return b
}
