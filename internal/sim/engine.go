/*
Package sim
File: engine.go
Description:
    The simulation engine. Owns the game clock, the event scheduler, the
    market engine, the player, and the shared event-driven multipliers, and
    drives them in the fixed per-tick order: clock advances, then events fire
    and expire, then prices recompute, then survival decay lands.

    All state is guarded by one mutex because HTTP handlers, the websocket
    hub, and cron jobs call in concurrently; the logical tick itself is
    single-flight.
*/

package sim

import (
	"log"
	"sync"
	"time"

	"github.com/everforgeworks/tradewinds-server/internal/clock"
	"github.com/everforgeworks/tradewinds-server/internal/event"
	"github.com/everforgeworks/tradewinds-server/internal/market"
	"github.com/everforgeworks/tradewinds-server/internal/player"
	"github.com/everforgeworks/tradewinds-server/internal/world"
)

// Notice is the typed notification handed to UI subscribers. The API hub
// serializes it onto the websocket; the core knows nothing about rendering.
type Notice struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// NotifyFunc receives every outbound notification.
type NotifyFunc func(Notice)

// Engine composes the whole simulation core.
type Engine struct {
	mu sync.RWMutex

	cfg *world.Config
	bal world.Balance

	clock     *clock.GameClock
	scheduler *event.Scheduler
	market    *market.Engine
	player    *player.State

	// Shared event-driven modifiers. Apply/reverse symmetry keeps these
	// drift-free across overlapping events.
	priceMult  float64
	travelMult float64

	// lastRestockDay is the absolute day index (TotalMinutes/1440) of the
	// last daily restock, guaranteeing exactly one restock per game day.
	lastRestockDay int64

	gameOver bool

	notify     NotifyFunc
	onGameOver func()
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithNotify attaches the notification sink.
func WithNotify(fn NotifyFunc) Option {
	return func(e *Engine) { e.notify = fn }
}

// WithGameOverHook attaches the external game-over collaborator.
func WithGameOverHook(fn func()) Option {
	return func(e *Engine) { e.onGameOver = fn }
}

// NewEngine builds a fresh session: new-game clock (Day 1, 08:00, paused),
// seeded markets, a fresh player, and an empty scheduler.
func NewEngine(cfg *world.Config, seed int64, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		bal:        cfg.EffectiveBalance(),
		clock:      clock.New(),
		player:     player.New(cfg),
		priceMult:  1.0,
		travelMult: 1.0,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.market = market.NewEngine(cfg, func() float64 { return e.priceMult }, seed)

	types := withTravelType(cfg.EventTypes)
	e.scheduler = event.NewScheduler(types, e.bal.RandomEventChance, e, e.forwardEventNotice, seed+1)
	e.scheduler.SetOnFire(e.handleFired)

	e.player.SyncInterval(e.clock.TotalMinutes())
	e.lastRestockDay = e.clock.TotalMinutes() / clock.MinutesPerDay

	return e
}

// withTravelType guarantees the reserved travel-arrival type exists even if
// world.yaml omits it.
func withTravelType(types []world.EventType) []world.EventType {
	for _, t := range types {
		if t.Key == event.TravelCompleteType {
			return types
		}
	}
	return append(append([]world.EventType{}, types...), world.EventType{
		Key:    event.TravelCompleteType,
		Name:   "Arrival",
		Silent: true,
	})
}

// Advance runs one simulation tick for the given real elapsed time. While
// paused (or after game over) it is a strict no-op: no decay, no events, no
// price movement, and nothing "catches up" on unpause. Returns the number of
// game-minutes processed.
func (e *Engine) Advance(dt time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gameOver {
		return 0
	}

	// 1. Clock first. Paused clocks return 0 without accumulating.
	advanced := e.clock.Advance(dt)
	if advanced == 0 {
		return 0
	}
	total := e.clock.TotalMinutes()

	// 2. Events fire before prices recompute so freshly applied price
	// effects shape this same tick's prices, and travel arrivals land
	// before the location-dependent market is queried.
	e.scheduler.Tick(total)
	e.scheduler.ExpireSweep(total)

	// 3. Market tick.
	e.market.RecomputeAll(e.clock.Hour)
	e.maybeRestock(total)

	// 4. Survival decay, paid per elapsed 5-minute interval.
	season := world.SeasonForMonth(e.clock.Month)
	result := e.player.ApplyDecay(total, season, e.bal)
	if result.Died {
		e.handleGameOver()
	}

	return advanced
}

// maybeRestock runs the daily restock exactly once per game day, when the
// clock is at or past the restock hour. Tracking the absolute day index
// makes the check idempotent even when a multi-minute cascade crosses the
// boundary twice.
func (e *Engine) maybeRestock(total int64) {
	dayIdx := total / clock.MinutesPerDay
	if e.clock.Hour < e.bal.RestockHour || dayIdx == e.lastRestockDay {
		return
	}
	e.lastRestockDay = dayIdx

	for _, loc := range e.cfg.Locations {
		e.market.DailyRestock(loc.Key)
	}
	e.emit(Notice{Type: "market_pulse", Payload: map[string]interface{}{"day": e.clock.Day}})
}

// handleFired reacts to scheduled events with engine-level payloads.
// Runs inside the tick, under the engine lock.
func (e *Engine) handleFired(typeID string, payload map[string]interface{}) {
	if typeID != event.TravelCompleteType {
		return
	}

	dest, _ := payload["destination"].(string)
	if dest == "" || e.cfg.Location(dest) == nil {
		log.Printf("[Engine] travel arrival with bad destination %q (skipped)", dest)
		e.player.Traveling = false
		e.player.Destination = ""
		return
	}

	e.player.LocationKey = dest
	e.player.Traveling = false
	e.player.Destination = ""
	log.Printf("[Engine] arrived at %s", dest)
	e.emit(Notice{Type: "travel_complete", Payload: map[string]interface{}{"location": dest}})
}

func (e *Engine) handleGameOver() {
	e.gameOver = true
	e.clock.SetSpeed(clock.Paused)
	log.Printf("[Engine] player died at %s", e.clock.Formatted())
	e.emit(Notice{Type: "game_over", Payload: map[string]interface{}{"time": e.clock.Formatted()}})
	if e.onGameOver != nil {
		e.onGameOver()
	}
}

// forwardEventNotice adapts scheduler notifications onto the notice sink.
func (e *Engine) forwardEventNotice(n event.Notification) {
	e.emit(Notice{Type: "event_triggered", Payload: n})
}

func (e *Engine) emit(n Notice) {
	if e.notify != nil {
		e.notify(n)
	}
}

// --- event.Target implementation -----------------------------------------
// Effects mutate the engine through this narrow surface. Calls always arrive
// inside a tick (or a locked Trigger), so no extra locking here.

// ScalePriceMultiplier multiplies the global market modifier.
func (e *Engine) ScalePriceMultiplier(factor float64) { e.priceMult *= factor }

// ScaleTravelMultiplier multiplies the global travel-speed modifier.
func (e *Engine) ScaleTravelMultiplier(factor float64) { e.travelMult *= factor }

// GrantGold forwards a windfall to the player.
func (e *Engine) GrantGold(amount int) { e.player.GrantGold(amount) }

// TakeGold forwards a loss to the player (floored at zero there).
func (e *Engine) TakeGold(amount int) { e.player.TakeGold(amount) }

// GrantItem drops one unit of an item into the pack.
func (e *Engine) GrantItem(itemKey string) { e.player.GrantItem(itemKey) }

// RefreshMarkets is the newItems effect: full restock, demand pressure
// relaxed.
func (e *Engine) RefreshMarkets() { e.market.RefreshAll() }

// --- read-only snapshots ---------------------------------------------------

// TimeInfo returns the structured clock snapshot.
func (e *Engine) TimeInfo() clock.Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock.Info()
}

// FormattedTime returns the display string for the UI header.
func (e *Engine) FormattedTime() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock.Formatted()
}

// Player returns a copy of the player state.
func (e *Engine) Player() player.State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p := *e.player
	p.Inventory = make(map[string]int, len(e.player.Inventory))
	for k, v := range e.player.Inventory {
		p.Inventory[k] = v
	}
	return p
}

// ActiveEvents lists the currently applied events for UI badges.
func (e *Engine) ActiveEvents() []event.Active {
	e.mu.RLock()
	defer e.mu.RUnlock()

	active := e.scheduler.ActiveEvents()
	out := make([]event.Active, len(active))
	for i, a := range active {
		out[i] = *a
	}
	return out
}

// MarketSnapshot returns one location's price/stock listing.
func (e *Engine) MarketSnapshot(locationKey string) []market.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.market.Snapshot(locationKey)
}

// Locations exposes the static location list.
func (e *Engine) Locations() []world.Location {
	return e.cfg.Locations
}

// Items exposes the static item list.
func (e *Engine) Items() []world.Item {
	return e.cfg.Items
}

// Multipliers reports the shared event-driven modifiers, mainly for tests
// and the simulate report.
func (e *Engine) Multipliers() (price, travel float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.priceMult, e.travelMult
}

// GameOver reports whether the run has ended.
func (e *Engine) GameOver() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gameOver
}
