/*
Package market
File: market.go
Description:
    The per-location market engine. Every (location, item) pair carries a
    price, a stock level, and a supply/demand ratio. Prices are recomputed
    from the immutable base price on every market tick — never drifted from
    the previous price — so a long session can never compound its way to
    runaway values.

    Supply/demand pressure works like a heat map: buys push the ratio toward
    scarcity, sells toward surplus, and every tick cools it back toward the
    neutral 1.0, monotonically.
*/

package market

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"

	"github.com/everforgeworks/tradewinds-server/internal/world"
)

// Recoverable trade failures, surfaced to the UI as messages.
var (
	ErrOutOfStock        = errors.New("not enough stock")
	ErrInsufficientFunds = errors.New("not enough gold")
	ErrUnknownLocation   = errors.New("unknown location")
	ErrUnknownItem       = errors.New("unknown item")
)

// Price fluctuation and band constants.
const (
	fluctuationRange = 0.05 // per-tick uniform draw in [-5%, +5%]

	morningStartHour = 6
	morningEndHour   = 12
	eveningStartHour = 18
	eveningEndHour   = 22
	morningModifier  = 1.02
	eveningModifier  = 0.98

	highDemandRatio  = 1.3
	lowDemandRatio   = 0.7
	demandSurcharge  = 1.15
	surplusDiscount  = 0.85
	ratioFloor       = 0.25
	ratioCeiling     = 4.0
	ratioImpactBuy   = 0.03 // ratio shift per unit bought
	ratioImpactSell  = 0.02 // sells settle markets slower than buys heat them
	ratioRecoverRate = 0.05 // cooling toward 1.0 per market tick
)

// Entry is the live market state for one item at one location.
type Entry struct {
	ItemKey   string  `json:"item_key"`
	BasePrice int     `json:"base_price"` // captured once, never mutated
	Price     int     `json:"price"`
	Stock     int     `json:"stock"`
	Ratio     float64 `json:"supply_demand_ratio"`
}

// DemandTag labels an entry's supply/demand state for the UI.
func (e *Entry) DemandTag() string {
	switch {
	case e.Ratio > highDemandRatio:
		return "high_demand"
	case e.Ratio < lowDemandRatio:
		return "low_demand"
	default:
		return "steady"
	}
}

// Engine owns every location's market. Not safe for concurrent use on its
// own; the sim engine serializes access.
type Engine struct {
	cfg     *world.Config
	entries map[string]map[string]*Entry // locationKey -> itemKey -> entry
	rng     *rand.Rand

	// priceMultiplier reads the event-driven global modifier each recompute.
	priceMultiplier func() float64
}

// NewEngine seeds an entry for every (location, item) pair. priceMultiplier
// supplies the current event-driven global modifier; nil means no modifier.
func NewEngine(cfg *world.Config, priceMultiplier func() float64, seed int64) *Engine {
	if priceMultiplier == nil {
		priceMultiplier = func() float64 { return 1.0 }
	}
	e := &Engine{
		cfg:             cfg,
		entries:         make(map[string]map[string]*Entry),
		rng:             rand.New(rand.NewSource(seed)),
		priceMultiplier: priceMultiplier,
	}

	for _, loc := range cfg.Locations {
		byItem := make(map[string]*Entry, len(cfg.Items))
		ceiling := loc.Tier.MaxStock()
		for _, item := range cfg.Items {
			stock := e.seedStock(loc, item.Key, ceiling)
			byItem[item.Key] = &Entry{
				ItemKey:   item.Key,
				BasePrice: item.BasePrice,
				Price:     item.BasePrice,
				Stock:     stock,
				Ratio:     1.0,
			}
		}
		e.entries[loc.Key] = byItem
	}
	return e
}

// seedStock gives specialties a fuller shelf than generic goods.
func (e *Engine) seedStock(loc world.Location, itemKey string, ceiling int) int {
	base := ceiling / 4
	if base < 3 {
		base = 3
	}
	for _, spec := range loc.Specialties {
		if spec == itemKey {
			return clamp(base*2+e.rng.Intn(base+1), 0, ceiling)
		}
	}
	return clamp(base+e.rng.Intn(base+1), 0, ceiling)
}

// RecomputeAll re-derives every price from its base price:
//
//	price = round(base * (1 + fluctuation) * timeOfDay * eventMultiplier * demandBand)
//
// The fluctuation is drawn fresh each tick, so prices wander inside a bounded
// band instead of compounding.
func (e *Engine) RecomputeAll(hour int) {
	tod := timeOfDayModifier(hour)
	global := e.priceMultiplier()

	for _, byItem := range e.entries {
		for _, entry := range byItem {
			fluct := 1 + (e.rng.Float64()*2-1)*fluctuationRange
			price := float64(entry.BasePrice) * fluct * tod * global * demandBand(entry.Ratio)
			entry.Price = int(math.Round(price))
			if entry.Price < 1 {
				entry.Price = 1
			}

			// Cool the ratio toward neutral. Monotonic: never overshoots 1.0.
			entry.Ratio = coolRatio(entry.Ratio)
		}
	}
}

// timeOfDayModifier: markets run hot in the morning rush and soften in the
// evening wind-down.
func timeOfDayModifier(hour int) float64 {
	switch {
	case hour >= morningStartHour && hour < morningEndHour:
		return morningModifier
	case hour >= eveningStartHour && hour < eveningEndHour:
		return eveningModifier
	default:
		return 1.0
	}
}

// demandBand converts the supply/demand ratio into its price band.
func demandBand(ratio float64) float64 {
	switch {
	case ratio > highDemandRatio:
		return demandSurcharge
	case ratio < lowDemandRatio:
		return surplusDiscount
	default:
		return 1.0
	}
}

// coolRatio steps the ratio toward 1.0 without crossing it.
func coolRatio(ratio float64) float64 {
	if ratio > 1.0 {
		return math.Max(1.0, ratio-ratioRecoverRate)
	}
	if ratio < 1.0 {
		return math.Min(1.0, ratio+ratioRecoverRate)
	}
	return ratio
}

// Buy validates and prices a purchase. All-or-nothing: on failure nothing
// mutates. On success stock drops, demand pressure rises, and the gold cost
// is returned for the caller to debit; inventory mutation stays with the
// caller, as does any charisma/reputation adjustment of the unit price.
func (e *Engine) Buy(locationKey, itemKey string, quantity, buyerGold int) (int, error) {
	entry, err := e.entry(locationKey, itemKey)
	if err != nil {
		return 0, err
	}
	if quantity <= 0 {
		return 0, fmt.Errorf("buy %s: quantity must be positive", itemKey)
	}
	if entry.Stock < quantity {
		return 0, fmt.Errorf("buy %s at %s: %w", itemKey, locationKey, ErrOutOfStock)
	}

	cost := entry.Price * quantity
	if cost > buyerGold {
		return 0, fmt.Errorf("buy %s at %s: %w", itemKey, locationKey, ErrInsufficientFunds)
	}

	entry.Stock -= quantity
	e.applySupplyDemand(entry, quantity)
	return cost, nil
}

// Sell prices a sale and restocks the shelf. Selling is never blocked: the
// merchant-out-of-gold concern is a higher-level NPC feature, not the
// market's. Missing entries are created seeded from the catalog base price.
func (e *Engine) Sell(locationKey, itemKey string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("sell %s: quantity must be positive", itemKey)
	}
	byItem, ok := e.entries[locationKey]
	if !ok {
		return 0, fmt.Errorf("sell at %s: %w", locationKey, ErrUnknownLocation)
	}

	entry, ok := byItem[itemKey]
	if !ok {
		item := e.cfg.Item(itemKey)
		if item == nil {
			return 0, fmt.Errorf("sell %s: %w", itemKey, ErrUnknownItem)
		}
		entry = &Entry{
			ItemKey:   itemKey,
			BasePrice: item.BasePrice,
			Price:     item.BasePrice,
			Stock:     0,
			Ratio:     1.0,
		}
		byItem[itemKey] = entry
	}

	revenue := entry.Price * quantity

	ceiling := e.stockCeiling(locationKey)
	entry.Stock = clamp(entry.Stock+quantity, 0, ceiling)
	e.applySupplyDemand(entry, -quantity)
	return revenue, nil
}

// applySupplyDemand nudges the ratio: positive delta (a buy) toward
// scarcity, negative delta (a sell) toward surplus.
func (e *Engine) applySupplyDemand(entry *Entry, delta int) {
	if delta > 0 {
		entry.Ratio += float64(delta) * ratioImpactBuy
	} else {
		entry.Ratio += float64(delta) * ratioImpactSell
	}
	entry.Ratio = clampFloat(entry.Ratio, ratioFloor, ratioCeiling)
}

// DailyRestock tops up one location's shelves by a tier-scaled random amount,
// clamped to the tier ceiling. The sim loop guarantees once-per-day firing.
func (e *Engine) DailyRestock(locationKey string) {
	byItem, ok := e.entries[locationKey]
	if !ok {
		log.Printf("[Market] restock skipped: unknown location %q", locationKey)
		return
	}

	loc := e.cfg.Location(locationKey)
	if loc == nil {
		return
	}
	low, high := loc.Tier.RestockRange()
	ceiling := loc.Tier.MaxStock()

	for _, entry := range byItem {
		amount := low + e.rng.Intn(high-low+1)
		entry.Stock = clamp(entry.Stock+amount, 0, ceiling)
	}
}

// RefreshAll is the market-refresh event effect: restock every location and
// relax every supply/demand ratio most of the way back to neutral.
func (e *Engine) RefreshAll() {
	for locKey, byItem := range e.entries {
		e.DailyRestock(locKey)
		for _, entry := range byItem {
			entry.Ratio = 1.0 + (entry.Ratio-1.0)*0.5
		}
	}
	log.Printf("[Market] full refresh: %d locations restocked", len(e.entries))
}

// Snapshot returns a location's entries sorted by item key, for the UI and
// the save collaborator.
func (e *Engine) Snapshot(locationKey string) []Entry {
	byItem, ok := e.entries[locationKey]
	if !ok {
		return nil
	}
	out := make([]Entry, 0, len(byItem))
	for _, entry := range byItem {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemKey < out[j].ItemKey })
	return out
}

// SnapshotAll returns every location's entries keyed by location.
func (e *Engine) SnapshotAll() map[string][]Entry {
	out := make(map[string][]Entry, len(e.entries))
	for locKey := range e.entries {
		out[locKey] = e.Snapshot(locKey)
	}
	return out
}

// Restore overwrites entries from saved state. Unknown locations/items and
// nonsense values are dropped field-by-field with a log line; base prices
// always come from the current catalog, never the save.
func (e *Engine) Restore(saved map[string][]Entry) {
	for locKey, entries := range saved {
		byItem, ok := e.entries[locKey]
		if !ok {
			log.Printf("[Market] dropping saved market for unknown location %q", locKey)
			continue
		}
		ceiling := e.stockCeiling(locKey)
		for _, savedEntry := range entries {
			entry, ok := byItem[savedEntry.ItemKey]
			if !ok {
				log.Printf("[Market] dropping saved entry for unknown item %q", savedEntry.ItemKey)
				continue
			}
			if savedEntry.Price > 0 {
				entry.Price = savedEntry.Price
			}
			entry.Stock = clamp(savedEntry.Stock, 0, ceiling)
			if savedEntry.Ratio >= ratioFloor && savedEntry.Ratio <= ratioCeiling {
				entry.Ratio = savedEntry.Ratio
			} else {
				entry.Ratio = 1.0
			}
		}
	}
}

// Entry exposes a single entry copy, mainly for tests and the buy handler's
// price preview.
func (e *Engine) Entry(locationKey, itemKey string) (Entry, error) {
	entry, err := e.entry(locationKey, itemKey)
	if err != nil {
		return Entry{}, err
	}
	return *entry, nil
}

func (e *Engine) entry(locationKey, itemKey string) (*Entry, error) {
	byItem, ok := e.entries[locationKey]
	if !ok {
		return nil, fmt.Errorf("%s: %w", locationKey, ErrUnknownLocation)
	}
	entry, ok := byItem[itemKey]
	if !ok {
		return nil, fmt.Errorf("%s: %w", itemKey, ErrUnknownItem)
	}
	return entry, nil
}

func (e *Engine) stockCeiling(locationKey string) int {
	if loc := e.cfg.Location(locationKey); loc != nil {
		return loc.Tier.MaxStock()
	}
	return world.TierSmall.MaxStock()
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
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
