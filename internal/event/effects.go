/*
Package event
File: effects.go
Description:
    Typed event effects. The YAML catalog describes effects as a loose
    key -> value map; this file decodes that map into concrete effect values,
    each carrying its own Apply/Reverse pair so every effect that can be
    applied is guaranteed to define its reversal.

    Multiplicative effects (price/travel shifts) reverse by dividing out the
    exact factor they multiplied in, which keeps the shared multipliers
    drift-free across any number of overlapping events.
*/

package event

import (
	"log"
)

// Target is the surface effects mutate: the shared market/travel multipliers,
// the player's purse and pack, and the market-refresh hook. The sim engine
// implements it; tests use a lightweight fake.
type Target interface {
	// ScalePriceMultiplier multiplies the global market price modifier.
	ScalePriceMultiplier(factor float64)
	// ScaleTravelMultiplier multiplies the global travel-speed modifier.
	ScaleTravelMultiplier(factor float64)
	// GrantGold adds a windfall to the player's purse.
	GrantGold(amount int)
	// TakeGold removes gold, flooring at zero.
	TakeGold(amount int)
	// GrantItem adds one unit of the item to the player's inventory.
	GrantItem(itemKey string)
	// RefreshMarkets restocks every location and relaxes demand pressure.
	RefreshMarkets()
}

// Effect is one decoded catalog effect. Apply runs when the event triggers;
// Reverse runs when it expires. One-shot effects implement Reverse as a no-op.
type Effect interface {
	Apply(t Target)
	Reverse(t Target)
	Kind() string
}

// PriceShift scales the global price multiplier by (1+X) for the event's
// lifetime. Covers both the bonus (X > 0) and penalty (X < 0) catalog keys.
type PriceShift struct {
	X float64 `json:"x"`
}

func (e PriceShift) Kind() string     { return "price_shift" }
func (e PriceShift) Apply(t Target)   { t.ScalePriceMultiplier(1 + e.X) }
func (e PriceShift) Reverse(t Target) { t.ScalePriceMultiplier(1 / (1 + e.X)) }

// TravelShift scales the global travel-speed multiplier by (1+X).
type TravelShift struct {
	X float64 `json:"x"`
}

func (e TravelShift) Kind() string     { return "travel_shift" }
func (e TravelShift) Apply(t Target)   { t.ScaleTravelMultiplier(1 + e.X) }
func (e TravelShift) Reverse(t Target) { t.ScaleTravelMultiplier(1 / (1 + e.X)) }

// GoldReward is a one-time windfall. Never reversed on expiry.
type GoldReward struct {
	Amount int `json:"amount"`
}

func (e GoldReward) Kind() string     { return "gold_reward" }
func (e GoldReward) Apply(t Target)   { t.GrantGold(e.Amount) }
func (e GoldReward) Reverse(t Target) {}

// GoldLoss is a one-time loss, floored at zero by the target.
type GoldLoss struct {
	Amount int `json:"amount"`
}

func (e GoldLoss) Kind() string     { return "gold_loss" }
func (e GoldLoss) Apply(t Target)   { t.TakeGold(e.Amount) }
func (e GoldLoss) Reverse(t Target) {}

// ItemReward grants one unit of an item. One-time.
type ItemReward struct {
	ItemKey string `json:"item_key"`
}

func (e ItemReward) Kind() string     { return "item_reward" }
func (e ItemReward) Apply(t Target)   { t.GrantItem(e.ItemKey) }
func (e ItemReward) Reverse(t Target) {}

// MarketRefresh restocks all locations and pulls supply/demand back toward
// neutral. This is the `newItems` catalog effect. One-time.
type MarketRefresh struct{}

func (e MarketRefresh) Kind() string     { return "market_refresh" }
func (e MarketRefresh) Apply(t Target)   { t.RefreshMarkets() }
func (e MarketRefresh) Reverse(t Target) {}

// DecodeEffects converts a raw catalog/payload effects map into typed
// effects. Unknown keys are skipped (forward-compatible catalog), as are
// values of the wrong shape; neither is fatal.
func DecodeEffects(raw map[string]interface{}) []Effect {
	if len(raw) == 0 {
		return nil
	}

	effects := make([]Effect, 0, len(raw))
	for key, val := range raw {
		switch key {
		case "priceBonus", "pricePenalty":
			if x, ok := asFloat(val); ok {
				effects = append(effects, PriceShift{X: x})
			}
		case "travelSpeedBonus", "travelSpeedPenalty":
			if x, ok := asFloat(val); ok {
				effects = append(effects, TravelShift{X: x})
			}
		case "goldReward":
			if n, ok := asInt(val); ok {
				effects = append(effects, GoldReward{Amount: n})
			}
		case "goldLost":
			if n, ok := asInt(val); ok {
				effects = append(effects, GoldLoss{Amount: n})
			}
		case "itemReward":
			if s, ok := val.(string); ok {
				effects = append(effects, ItemReward{ItemKey: s})
			}
		case "newItems":
			if b, ok := val.(bool); ok && b {
				effects = append(effects, MarketRefresh{})
			}
		case "destination":
			// Routing payload, not an effect. Consumed by the travel handler.
		default:
			log.Printf("[Events] ignoring unknown effect key %q", key)
		}
	}
	return effects
}

// asFloat coerces the numeric types YAML and JSON decoding produce.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
