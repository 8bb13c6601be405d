/*
Package sim
File: actions.go
Description:
    Player-driven entry points into the engine: trading, travel, speed
    changes, and explicit event triggers. Every action is all-or-nothing
    under the engine lock; trade failures return sentinel-wrapped errors the
    API layer maps onto user-facing messages.
*/

package sim

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"

	"github.com/everforgeworks/tradewinds-server/internal/clock"
	"github.com/everforgeworks/tradewinds-server/internal/event"
	"github.com/everforgeworks/tradewinds-server/internal/market"
	"github.com/everforgeworks/tradewinds-server/internal/world"
)

var (
	// ErrInvalidSpeed mirrors the clock's boolean rejection as an error for
	// API callers.
	ErrInvalidSpeed = errors.New("invalid speed")
	// ErrTraveling blocks market and travel actions while on the road.
	ErrTraveling = errors.New("currently traveling")
	// ErrGameOver blocks everything after the run ends.
	ErrGameOver = errors.New("the run has ended")
	// ErrNotCarried is returned when selling more than the pack holds.
	ErrNotCarried = errors.New("not enough in inventory")
)

// SetSpeed changes the simulation speed. Unknown values return
// ErrInvalidSpeed; they never panic, since this is wired to UI buttons.
func (e *Engine) SetSpeed(s clock.Speed) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gameOver && s != clock.Paused {
		return ErrGameOver
	}
	if !e.clock.SetSpeed(s) {
		return fmt.Errorf("%w: %d", ErrInvalidSpeed, s)
	}
	return nil
}

// BuyItem purchases quantity units at the player's current location. The
// market validates stock and funds; on success the engine debits the purse
// and fills the pack.
func (e *Engine) BuyItem(itemKey string, quantity int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gameOver {
		return 0, ErrGameOver
	}
	if e.player.Traveling {
		return 0, ErrTraveling
	}

	cost, err := e.market.Buy(e.player.LocationKey, itemKey, quantity, e.player.Gold)
	if err != nil {
		return 0, err
	}

	e.player.Gold -= cost
	e.player.AddItems(itemKey, quantity)
	return cost, nil
}

// SellItem sells quantity units from the pack at the current location.
func (e *Engine) SellItem(itemKey string, quantity int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gameOver {
		return 0, ErrGameOver
	}
	if e.player.Traveling {
		return 0, ErrTraveling
	}
	if e.player.Inventory[itemKey] < quantity {
		return 0, fmt.Errorf("sell %s: %w", itemKey, ErrNotCarried)
	}

	revenue, err := e.market.Sell(e.player.LocationKey, itemKey, quantity)
	if err != nil {
		return 0, err
	}

	e.player.AddItems(itemKey, -quantity)
	e.player.Gold += revenue
	return revenue, nil
}

// TravelQuote prices a journey without committing to it.
type TravelQuote struct {
	Destination   string `json:"destination"`
	Distance      int    `json:"distance"`
	TravelMinutes int    `json:"travel_minutes"`
}

// QuoteTravel computes distance and duration to a destination under the
// current travel-speed modifier.
func (e *Engine) QuoteTravel(destKey string) (TravelQuote, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.quoteTravel(destKey)
}

func (e *Engine) quoteTravel(destKey string) (TravelQuote, error) {
	dest := e.cfg.Location(destKey)
	if dest == nil {
		return TravelQuote{}, fmt.Errorf("%q: %w", destKey, market.ErrUnknownLocation)
	}
	origin := e.cfg.Location(e.player.LocationKey)
	if dest.Key == e.player.LocationKey {
		return TravelQuote{}, fmt.Errorf("already at %q", destKey)
	}

	dist := world.Distance(origin, dest)
	minutes := int(math.Round(float64(dist) * e.bal.BaseTravelPace / e.travelMult))
	if minutes < 1 {
		minutes = 1
	}
	return TravelQuote{Destination: dest.Key, Distance: dist, TravelMinutes: minutes}, nil
}

// TravelTo departs for a destination: the player is flagged as traveling
// (which freezes stamina regen) and an arrival trigger is scheduled at the
// computed game-minute. Returns the quote and the cancellable trigger id.
func (e *Engine) TravelTo(destKey string) (TravelQuote, uuid.UUID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gameOver {
		return TravelQuote{}, uuid.Nil, ErrGameOver
	}
	if e.player.Traveling {
		return TravelQuote{}, uuid.Nil, ErrTraveling
	}

	quote, err := e.quoteTravel(destKey)
	if err != nil {
		return TravelQuote{}, uuid.Nil, err
	}

	arriveAt := e.clock.TotalMinutes() + int64(quote.TravelMinutes)
	id := e.scheduler.ScheduleAt(event.TravelCompleteType, arriveAt, map[string]interface{}{
		"destination": quote.Destination,
	})

	e.player.Traveling = true
	e.player.Destination = quote.Destination
	log.Printf("[Engine] departing %s -> %s, ETA %d game-minutes", e.player.LocationKey, quote.Destination, quote.TravelMinutes)
	return quote, id, nil
}

// CancelTravel abandons a journey: the pending arrival is cancelled and the
// player stays at the origin (departure never cleared it).
func (e *Engine) CancelTravel(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scheduler.Cancel(id)
	e.player.Traveling = false
	e.player.Destination = ""
}

// TriggerEvent fires a catalog event immediately — the gameplay/scripting
// entry point. Unknown ids are logged and skipped inside the scheduler.
func (e *Engine) TriggerEvent(typeID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gameOver {
		return
	}
	e.scheduler.Trigger(typeID, nil, e.clock.TotalMinutes())
}

// ScheduleEvent books a catalog event for an absolute game-minute and
// returns its cancellable id.
func (e *Engine) ScheduleEvent(typeID string, triggerAt int64, payload map[string]interface{}) uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduler.ScheduleAt(typeID, triggerAt, payload)
}

// CancelEvent marks a pending scheduled event as permanently skipped.
func (e *Engine) CancelEvent(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduler.Cancel(id)
}
