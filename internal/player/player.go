/*
Package player
File: player.go
Description:
    The player's runtime state: purse, pack, location, and the survival
    vitals (health/hunger/thirst/stamina). Time-based decay is driven by
    elapsed 5-game-minute intervals counted on the absolute minute total, so
    high speeds that jump over individual minutes still pay for every
    interval they crossed. Direct consumption (eating, drinking) is the
    inventory collaborator's job, not this package's.
*/

package player

import (
	"math"

	"github.com/everforgeworks/tradewinds-server/internal/world"
)

// DecayIntervalMinutes is the survival tick resolution.
const DecayIntervalMinutes = 5

// Vitals are the bounded survival stats. Each value lives in [0, max].
type Vitals struct {
	Health     float64 `json:"health"`
	Hunger     float64 `json:"hunger"`
	Thirst     float64 `json:"thirst"`
	Stamina    float64 `json:"stamina"`
	MaxHealth  float64 `json:"max_health"`
	MaxHunger  float64 `json:"max_hunger"`
	MaxThirst  float64 `json:"max_thirst"`
	MaxStamina float64 `json:"max_stamina"`
}

// State is the full player snapshot the engine owns.
type State struct {
	Gold        int            `json:"gold"`
	LocationKey string         `json:"location_key"`
	Traveling   bool           `json:"traveling"`
	Destination string         `json:"destination,omitempty"`
	Inventory   map[string]int `json:"inventory"`
	Vitals      Vitals         `json:"vitals"`

	// lastInterval is the index (TotalMinutes / 5) of the last survival
	// interval already paid for.
	lastInterval int64
}

// New seeds a fresh player from config: full vitals, starting gold, standing
// at the configured start location.
func New(cfg *world.Config) *State {
	pc := cfg.PlayerConfig
	bal := cfg.EffectiveBalance()

	start := pc.StartLocation
	if start == "" && len(cfg.Locations) > 0 {
		start = cfg.Locations[0].Key
	}

	return &State{
		Gold:        bal.StartingGold,
		LocationKey: start,
		Inventory:   make(map[string]int),
		Vitals: Vitals{
			Health:     pc.MaxHealth,
			Hunger:     pc.MaxHunger,
			Thirst:     pc.MaxThirst,
			Stamina:    pc.MaxStamina,
			MaxHealth:  pc.MaxHealth,
			MaxHunger:  pc.MaxHunger,
			MaxThirst:  pc.MaxThirst,
			MaxStamina: pc.MaxStamina,
		},
	}
}

// SyncInterval aligns the interval cursor with the clock without applying
// decay. Called once at session start and after a restore so the first tick
// doesn't back-pay intervals that predate the session.
func (s *State) SyncInterval(totalMinutes int64) {
	s.lastInterval = totalMinutes / DecayIntervalMinutes
}

// DecayResult reports what a decay pass did, for logging and the game-over
// hook.
type DecayResult struct {
	Intervals int
	Died      bool
}

// ApplyDecay pays for every 5-minute interval elapsed since the last pass.
// Per interval: hunger and thirst drain (harsh seasons drain faster),
// stamina regenerates while idle, health regenerates while fed and watered
// (faster when well-fed), and an empty stomach or dry throat burns a fixed
// percentage of MaxHealth — percentage-based so every character dies at the
// same relative rate.
func (s *State) ApplyDecay(totalMinutes int64, season world.Season, bal world.Balance) DecayResult {
	current := totalMinutes / DecayIntervalMinutes
	elapsed := current - s.lastInterval
	if elapsed <= 0 {
		return DecayResult{}
	}
	s.lastInterval = current

	seasonMod := 1.0
	if season == world.SeasonWinter || season == world.SeasonSummer {
		seasonMod = bal.SeasonDecayModifier
	}

	v := &s.Vitals
	died := false

	for i := int64(0); i < elapsed && !died; i++ {
		v.Hunger = math.Max(0, v.Hunger-bal.HungerDecayPerInterval*seasonMod)
		v.Thirst = math.Max(0, v.Thirst-bal.ThirstDecayPerInterval*seasonMod)

		if !s.Traveling {
			v.Stamina = math.Min(v.MaxStamina, v.Stamina+bal.StaminaRegenPerInterval)
		}

		starving := v.Hunger <= 0 || v.Thirst <= 0
		if starving {
			v.Health -= bal.StarvationDrainPercent * v.MaxHealth
		} else if v.Hunger > bal.CriticalNeedThreshold*v.MaxHunger && v.Thirst > bal.CriticalNeedThreshold*v.MaxThirst {
			regen := bal.HealthRegenPerInterval
			if v.Hunger > bal.WellFedThreshold*v.MaxHunger && v.Thirst > bal.WellFedThreshold*v.MaxThirst {
				regen += bal.WellFedRegenBonus
			}
			v.Health = math.Min(v.MaxHealth, v.Health+regen)
		}

		if v.Health <= 0 {
			v.Health = 0
			died = true
		}
	}

	return DecayResult{Intervals: int(elapsed), Died: died}
}

// GrantGold adds a windfall to the purse.
func (s *State) GrantGold(amount int) {
	if amount > 0 {
		s.Gold += amount
	}
}

// TakeGold removes up to amount, flooring at zero. Gold never goes negative.
func (s *State) TakeGold(amount int) {
	if amount <= 0 {
		return
	}
	if amount > s.Gold {
		amount = s.Gold
	}
	s.Gold -= amount
}

// GrantItem adds one unit of an item to the pack.
func (s *State) GrantItem(itemKey string) {
	if s.Inventory == nil {
		s.Inventory = make(map[string]int)
	}
	s.Inventory[itemKey]++
}

// AddItems adjusts an inventory line by delta, removing the line at zero.
// Returns false if the pack doesn't hold enough to remove.
func (s *State) AddItems(itemKey string, delta int) bool {
	if s.Inventory == nil {
		s.Inventory = make(map[string]int)
	}
	next := s.Inventory[itemKey] + delta
	if next < 0 {
		return false
	}
	if next == 0 {
		delete(s.Inventory, itemKey)
	} else {
		s.Inventory[itemKey] = next
	}
	return true
}

// Restore overwrites state from a save, clamping vitals into their bounds
// and falling back to fresh defaults for nonsense values.
func (s *State) Restore(saved State, cfg *world.Config) {
	fresh := New(cfg)

	if saved.Gold >= 0 {
		s.Gold = saved.Gold
	} else {
		s.Gold = fresh.Gold
	}

	if saved.LocationKey != "" && cfg.Location(saved.LocationKey) != nil {
		s.LocationKey = saved.LocationKey
	} else {
		s.LocationKey = fresh.LocationKey
	}

	s.Traveling = saved.Traveling
	s.Destination = saved.Destination
	if s.Traveling && (s.Destination == "" || cfg.Location(s.Destination) == nil) {
		// A traveling save without a valid destination can't be resumed.
		s.Traveling = false
		s.Destination = ""
	}

	s.Inventory = make(map[string]int)
	for k, n := range saved.Inventory {
		if n > 0 {
			s.Inventory[k] = n
		}
	}

	s.Vitals = fresh.Vitals
	sv := saved.Vitals
	if sv.MaxHealth > 0 {
		s.Vitals.MaxHealth = sv.MaxHealth
		s.Vitals.Health = clampFloat(sv.Health, 0, sv.MaxHealth)
	}
	if sv.MaxHunger > 0 {
		s.Vitals.MaxHunger = sv.MaxHunger
		s.Vitals.Hunger = clampFloat(sv.Hunger, 0, sv.MaxHunger)
	}
	if sv.MaxThirst > 0 {
		s.Vitals.MaxThirst = sv.MaxThirst
		s.Vitals.Thirst = clampFloat(sv.Thirst, 0, sv.MaxThirst)
	}
	if sv.MaxStamina > 0 {
		s.Vitals.MaxStamina = sv.MaxStamina
		s.Vitals.Stamina = clampFloat(sv.Stamina, 0, sv.MaxStamina)
	}
}

func clampFloat(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
