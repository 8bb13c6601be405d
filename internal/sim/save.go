/*
Package sim
File: save.go
Description:
    Snapshot/restore glue between the engine and the save schema. Restore is
    deliberately lenient: each malformed section falls back to its
    default-initialized state with a log line instead of aborting the whole
    load, so one stale field can never brick a session. Restore is also the
    single code path allowed to move the clock backwards.
*/

package sim

import (
	"log"
	"time"

	"github.com/everforgeworks/tradewinds-server/internal/clock"
	"github.com/everforgeworks/tradewinds-server/internal/event"
	"github.com/everforgeworks/tradewinds-server/internal/save"
)

// Snapshot captures the full session state for the save collaborator.
func (e *Engine) Snapshot() *save.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p := *e.player
	p.Inventory = make(map[string]int, len(e.player.Inventory))
	for k, v := range e.player.Inventory {
		p.Inventory[k] = v
	}

	activePtrs := e.scheduler.ActiveEvents()
	active := make([]event.Active, len(activePtrs))
	for i, a := range activePtrs {
		active[i] = *a
	}

	return &save.Snapshot{
		SchemaVersion: save.CurrentSchemaVersion,
		SavedAt:       time.Now(),
		Clock: save.ClockState{
			Minute: e.clock.Minute,
			Hour:   e.clock.Hour,
			Day:    e.clock.Day,
			Week:   e.clock.Week,
			Month:  e.clock.Month,
			Year:   e.clock.Year,
			Speed:  e.clock.Speed,
		},
		Player:          p,
		ActiveEvents:    active,
		ScheduledEvents: e.scheduler.PendingScheduled(),
		Markets:         e.market.SnapshotAll(),
	}
}

// Restore rebuilds the session from a snapshot. The shared multipliers are
// reset to neutral and rebuilt by re-applying the surviving active events,
// which preserves the apply/reverse symmetry across the save boundary.
func (e *Engine) Restore(snap *save.Snapshot) {
	if snap == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if snap.SchemaVersion != save.CurrentSchemaVersion {
		log.Printf("[Engine] restoring snapshot with schema v%d (current v%d)", snap.SchemaVersion, save.CurrentSchemaVersion)
	}

	c := snap.Clock
	e.clock.Restore(c.Minute, c.Hour, c.Day, c.Month, c.Year, c.Speed)
	total := e.clock.TotalMinutes()

	e.player.Restore(snap.Player, e.cfg)

	// Neutral multipliers first; scheduler restore re-applies the live ones.
	e.priceMult = 1.0
	e.travelMult = 1.0
	e.scheduler.Restore(snap.ScheduledEvents, snap.ActiveEvents, total)

	e.market.Restore(snap.Markets)

	// A traveling save needs its arrival trigger. If the pending queue lost
	// it (stale or hand-edited save), schedule a short hop so the player is
	// never stranded mid-journey.
	if e.player.Traveling {
		found := false
		for _, entry := range e.scheduler.PendingScheduled() {
			if entry.TypeID == event.TravelCompleteType {
				found = true
				break
			}
		}
		if !found {
			log.Printf("[Engine] traveling save had no arrival trigger; rescheduling")
			e.scheduler.ScheduleAt(event.TravelCompleteType, total+5, map[string]interface{}{
				"destination": e.player.Destination,
			})
		}
	}

	e.player.SyncInterval(total)
	e.lastRestockDay = total / clock.MinutesPerDay
	e.gameOver = e.player.Vitals.Health <= 0
	if e.gameOver {
		e.clock.SetSpeed(clock.Paused)
	}

	log.Printf("[Engine] restored session at %s", e.clock.Formatted())
}
