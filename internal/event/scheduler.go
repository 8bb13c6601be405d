/*
Package event
File: scheduler.go
Description:
    The event scheduler. Owns three things:
    1. A priority queue of deferred triggers bound to absolute game-minutes
       (travel arrivals are the built-in user of this).
    2. The random-event roll, rate-limited by a REAL-time cooldown.
    3. The list of currently active events, whose effects are reversed when
       they expire.

    Data errors (unknown type ids, malformed payloads, a panicking effect)
    degrade to log-and-skip: one corrupt entry must never halt the tick.
*/

package event

import (
	"container/heap"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/everforgeworks/tradewinds-server/internal/world"
)

// TravelCompleteType is the reserved type id for travel-arrival triggers.
// It is fired through the normal pipeline but never produces a popup
// notification; the engine raises its own arrival notice instead.
const TravelCompleteType = "travel_complete"

// RandomCheckCooldown is how much REAL time must pass between random-event
// rolls. Deliberately wall-clock, not game-clock: tying the roll cadence to
// game speed would make VeryFast sessions several times as eventful per real
// minute as Normal ones, an unintended difficulty swing.
const RandomCheckCooldown = 60 * time.Second

// Scheduled is a deferred trigger bound to an absolute game-minute.
type Scheduled struct {
	ID        uuid.UUID              `json:"id"`
	TypeID    string                 `json:"type_id"`
	TriggerAt int64                  `json:"trigger_at"` // clock.TotalMinutes value
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Active is an event whose effects are currently applied.
type Active struct {
	TypeID      string                 `json:"type_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	StartTotal  int64                  `json:"start_total"`
	Duration    int64                  `json:"duration_minutes"`
	Payload     map[string]interface{} `json:"payload,omitempty"`

	effects []Effect
}

// ExpiresAt returns the absolute game-minute the event's effects end.
func (a *Active) ExpiresAt() int64 { return a.StartTotal + a.Duration }

// Notification is handed to the notify callback when a non-silent event
// fires. The API layer forwards it to connected UIs.
type Notification struct {
	TypeID      string `json:"type_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// scheduleHeap orders Scheduled entries by trigger time, earliest first, so
// fired entries are naturally dequeued and the queue never grows unbounded.
type scheduleHeap []*Scheduled

func (h scheduleHeap) Len() int            { return len(h) }
func (h scheduleHeap) Less(i, j int) bool  { return h[i].TriggerAt < h[j].TriggerAt }
func (h scheduleHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scheduleHeap) Push(x interface{}) { *h = append(*h, x.(*Scheduled)) }
func (h *scheduleHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler drives deferred and random events against a Target.
type Scheduler struct {
	catalog map[string]world.EventType
	target  Target
	notify  func(Notification)
	onFire  func(typeID string, payload map[string]interface{})

	queue    scheduleHeap
	canceled map[uuid.UUID]bool
	active   []*Active

	// Random-trigger state. now is injected so tests control the cooldown.
	rng             *rand.Rand
	now             func() time.Time
	lastRandomCheck time.Time
	randomChance    float64
}

// NewScheduler builds a scheduler over the given catalog.
// notify may be nil when no UI is attached (headless simulate runs).
func NewScheduler(types []world.EventType, chance float64, target Target, notify func(Notification), seed int64) *Scheduler {
	catalog := make(map[string]world.EventType, len(types))
	for _, t := range types {
		catalog[t.Key] = t
	}
	s := &Scheduler{
		catalog:      catalog,
		target:       target,
		notify:       notify,
		canceled:     make(map[uuid.UUID]bool),
		rng:          rand.New(rand.NewSource(seed)),
		now:          time.Now,
		randomChance: chance,
	}
	heap.Init(&s.queue)
	return s
}

// SetNowFunc overrides the wall-clock source for the random-roll cooldown.
func (s *Scheduler) SetNowFunc(now func() time.Time) { s.now = now }

// SetOnFire registers a hook invoked after every fired event's effects have
// been applied, with the event's extra payload. The engine uses it to route
// travel arrivals.
func (s *Scheduler) SetOnFire(fn func(typeID string, payload map[string]interface{})) {
	s.onFire = fn
}

// ScheduleAt appends a deferred trigger. Scheduling for "now" (or the past)
// is legitimate: the entry fires on the next tick.
func (s *Scheduler) ScheduleAt(typeID string, triggerAt int64, payload map[string]interface{}) uuid.UUID {
	entry := &Scheduled{
		ID:        uuid.New(),
		TypeID:    typeID,
		TriggerAt: triggerAt,
		Payload:   payload,
	}
	heap.Push(&s.queue, entry)
	return entry.ID
}

// Cancel marks a pending entry as permanently skipped. Unknown ids are a
// no-op so callers can cancel blindly.
func (s *Scheduler) Cancel(id uuid.UUID) {
	s.canceled[id] = true
}

// Tick fires every due scheduled entry exactly once, then evaluates the
// random-event roll if the real-time cooldown window has elapsed.
func (s *Scheduler) Tick(nowTotal int64) {
	// 1. Fire due scheduled entries, earliest first.
	for s.queue.Len() > 0 && s.queue[0].TriggerAt <= nowTotal {
		entry := heap.Pop(&s.queue).(*Scheduled)
		if s.canceled[entry.ID] {
			delete(s.canceled, entry.ID)
			continue
		}
		s.fire(entry.TypeID, entry.Payload, nowTotal)
	}

	// 2. Random roll, at most once per real-time cooldown window.
	wall := s.now()
	if wall.Sub(s.lastRandomCheck) < RandomCheckCooldown {
		return
	}
	s.lastRandomCheck = wall

	if s.rng.Float64() >= s.randomChance {
		return
	}
	if typeID, ok := s.pickRandomType(); ok {
		log.Printf("[Scheduler] random event roll fired %q", typeID)
		s.fire(typeID, nil, nowTotal)
	}
}

// pickRandomType selects uniformly among catalog entries eligible for random
// triggering (TriggerChance > 0). Reserved/scripted types carry a zero
// chance and are never rolled.
func (s *Scheduler) pickRandomType() (string, bool) {
	eligible := make([]string, 0, len(s.catalog))
	for key, def := range s.catalog {
		if def.TriggerChance > 0 {
			eligible = append(eligible, key)
		}
	}
	if len(eligible) == 0 {
		return "", false
	}
	return eligible[s.rng.Intn(len(eligible))], true
}

// Trigger fires an event type immediately. Unknown ids are logged and
// skipped (they may come from stale saves), never fatal.
func (s *Scheduler) Trigger(typeID string, extra map[string]interface{}, nowTotal int64) {
	s.fire(typeID, extra, nowTotal)
}

// fire looks up the definition, merges the extra payload over the catalog
// effects (extra wins on collision), applies the effects, and notifies.
func (s *Scheduler) fire(typeID string, extra map[string]interface{}, nowTotal int64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Scheduler] panic firing %q: %v (skipped)", typeID, r)
		}
	}()

	def, ok := s.catalog[typeID]
	if !ok {
		log.Printf("[Scheduler] unknown event type %q (skipped)", typeID)
		return
	}

	merged := make(map[string]interface{}, len(def.Effects)+len(extra))
	for k, v := range def.Effects {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}

	active := &Active{
		TypeID:      typeID,
		Name:        def.Name,
		Description: def.Description,
		StartTotal:  nowTotal,
		Duration:    int64(def.DurationMinutes),
		Payload:     extra,
		effects:     DecodeEffects(merged),
	}

	for _, eff := range active.effects {
		eff.Apply(s.target)
	}

	// Zero-duration events are pure one-shots; nothing to track or reverse.
	if active.Duration > 0 {
		s.active = append(s.active, active)
	}

	if s.onFire != nil {
		s.onFire(typeID, extra)
	}

	if s.notify != nil && !def.Silent && typeID != TravelCompleteType {
		s.notify(Notification{TypeID: typeID, Name: def.Name, Description: def.Description})
	}
}

// ExpireSweep reverses and removes every active event whose duration has
// elapsed. Reversal divides out exactly the factors Apply multiplied in, so
// overlapping events settle back to the pre-trigger multipliers.
func (s *Scheduler) ExpireSweep(nowTotal int64) {
	if len(s.active) == 0 {
		return
	}

	kept := s.active[:0]
	for _, a := range s.active {
		if nowTotal >= a.ExpiresAt() {
			for _, eff := range a.effects {
				eff.Reverse(s.target)
			}
			log.Printf("[Scheduler] event %q expired", a.TypeID)
			continue
		}
		kept = append(kept, a)
	}
	s.active = kept
}

// ActiveEvents returns the current active list for UI badges.
func (s *Scheduler) ActiveEvents() []*Active {
	out := make([]*Active, len(s.active))
	copy(out, s.active)
	return out
}

// PendingScheduled returns the not-yet-fired queue for persistence.
// Canceled entries are excluded.
func (s *Scheduler) PendingScheduled() []Scheduled {
	out := make([]Scheduled, 0, s.queue.Len())
	for _, entry := range s.queue {
		if !s.canceled[entry.ID] {
			out = append(out, *entry)
		}
	}
	return out
}

// Restore rebuilds scheduler state from persisted data. Entries with unknown
// type ids are kept (they are skipped harmlessly at fire time); malformed
// entries are dropped with a log line.
func (s *Scheduler) Restore(scheduled []Scheduled, active []Active, nowTotal int64) {
	s.queue = s.queue[:0]
	heap.Init(&s.queue)
	s.canceled = make(map[uuid.UUID]bool)
	s.active = nil

	for i := range scheduled {
		entry := scheduled[i]
		if entry.TypeID == "" {
			log.Printf("[Scheduler] dropping malformed scheduled entry on load")
			continue
		}
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		e := entry
		heap.Push(&s.queue, &e)
	}

	// Re-applying the multiplicative effects on load rebuilds the shared
	// multipliers: the snapshot stores them implicitly via the active list.
	// One-shot effects (gold, items, refresh) already happened before the
	// save and must not run again.
	for i := range active {
		a := active[i]
		def, ok := s.catalog[a.TypeID]
		if !ok {
			log.Printf("[Scheduler] dropping active event with unknown type %q on load", a.TypeID)
			continue
		}
		if nowTotal >= a.StartTotal+a.Duration {
			continue // already expired while the save sat on disk
		}

		merged := make(map[string]interface{}, len(def.Effects)+len(a.Payload))
		for k, v := range def.Effects {
			merged[k] = v
		}
		for k, v := range a.Payload {
			merged[k] = v
		}

		restored := a
		restored.Name = def.Name
		restored.Description = def.Description
		restored.effects = DecodeEffects(merged)
		for _, eff := range restored.effects {
			switch eff.(type) {
			case PriceShift, TravelShift:
				eff.Apply(s.target)
			}
		}
		s.active = append(s.active, &restored)
	}
}
