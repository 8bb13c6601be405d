/*
Package api
File: handlers.go
Description:
    Contains the HTTP handlers for the REST API the browser client consumes:
    time and player snapshots, per-location market listings, buy/sell/travel
    actions, speed control, the active-event list, and save/load.

    Key Responsibilities:
    - Input Validation (Is the JSON valid? Does the entity exist?)
    - State Modification (Calling engine actions to trade, travel, pause)
    - Error Mapping (Recoverable trade failures become 4xx statuses with
      user-facing messages; the simulation never stops over a bad request)
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/everforgeworks/tradewinds-server/internal/clock"
	"github.com/everforgeworks/tradewinds-server/internal/market"
	"github.com/everforgeworks/tradewinds-server/internal/save"
	"github.com/everforgeworks/tradewinds-server/internal/sim"
)

// Server wires the engine and the hub into an http.Handler.
type Server struct {
	engine *sim.Engine
	hub    *Hub
}

func NewServer(engine *sim.Engine, hub *Hub) *Server {
	return &Server{engine: engine, hub: hub}
}

// Routes builds the full mux, CORS-wrapped for the browser client.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Information Endpoints
	mux.HandleFunc("/api/time", s.handleGetTime)
	mux.HandleFunc("/api/player", s.handleGetPlayer)
	mux.HandleFunc("/api/locations", s.handleGetLocations)
	mux.HandleFunc("/api/items", s.handleGetItems)
	mux.HandleFunc("/api/market", s.handleGetMarket)
	mux.HandleFunc("/api/events", s.handleGetEvents)

	// Action Endpoints
	mux.HandleFunc("/api/market/buy", s.handleBuy)
	mux.HandleFunc("/api/market/sell", s.handleSell)
	mux.HandleFunc("/api/travel", s.handleTravel)
	mux.HandleFunc("/api/travel/quote", s.handleTravelQuote)
	mux.HandleFunc("/api/speed", s.handleSetSpeed)

	// Persistence Endpoints
	mux.HandleFunc("/api/save", s.handleSave)
	mux.HandleFunc("/api/load", s.handleLoad)

	// Real-Time WebSocket Endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(s.hub, w, r)
	})

	return corsMiddleware(mux)
}

// corsMiddleware lets the browser client talk to the server across origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// tradeError maps engine/market failures onto HTTP statuses.
func tradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrOutOfStock):
		http.Error(w, "Not enough stock", http.StatusConflict)
	case errors.Is(err, market.ErrInsufficientFunds):
		http.Error(w, "Not enough gold", http.StatusPaymentRequired)
	case errors.Is(err, market.ErrUnknownLocation), errors.Is(err, market.ErrUnknownItem):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, sim.ErrTraveling):
		http.Error(w, "Cannot do that while traveling", http.StatusConflict)
	case errors.Is(err, sim.ErrNotCarried):
		http.Error(w, "Not enough in inventory", http.StatusConflict)
	case errors.Is(err, sim.ErrGameOver):
		http.Error(w, "The run has ended", http.StatusGone)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func (s *Server) handleGetTime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"info":      s.engine.TimeInfo(),
		"formatted": s.engine.FormattedTime(),
	})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.Player())
}

func (s *Server) handleGetLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.Locations())
}

func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.Items())
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.ActiveEvents())
}

// handleGetMarket lists one location's market; defaults to where the player
// stands.
func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	locationKey := r.URL.Query().Get("location")
	if locationKey == "" {
		locationKey = s.engine.Player().LocationKey
	}

	entries := s.engine.MarketSnapshot(locationKey)
	if entries == nil {
		http.Error(w, "Unknown location", http.StatusNotFound)
		return
	}
	writeJSON(w, entries)
}

// Request DTOs. These structs define exactly what we expect the client to
// send us.

type TradeRequest struct {
	ItemKey  string `json:"item_key"`
	Quantity int    `json:"quantity"`
}

type TradeResponse struct {
	ItemKey  string `json:"item_key"`
	Quantity int    `json:"quantity"`
	Gold     int    `json:"gold"` // cost on buy, revenue on sell
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	cost, err := s.engine.BuyItem(req.ItemKey, req.Quantity)
	if err != nil {
		tradeError(w, err)
		return
	}
	writeJSON(w, TradeResponse{ItemKey: req.ItemKey, Quantity: req.Quantity, Gold: cost})
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	revenue, err := s.engine.SellItem(req.ItemKey, req.Quantity)
	if err != nil {
		tradeError(w, err)
		return
	}
	writeJSON(w, TradeResponse{ItemKey: req.ItemKey, Quantity: req.Quantity, Gold: revenue})
}

type TravelRequest struct {
	DestinationKey string `json:"destination_key"`
}

func (s *Server) handleTravelQuote(w http.ResponseWriter, r *http.Request) {
	var req TravelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request", http.StatusBadRequest)
		return
	}

	quote, err := s.engine.QuoteTravel(req.DestinationKey)
	if err != nil {
		tradeError(w, err)
		return
	}
	writeJSON(w, quote)
}

func (s *Server) handleTravel(w http.ResponseWriter, r *http.Request) {
	var req TravelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request", http.StatusBadRequest)
		return
	}

	quote, id, err := s.engine.TravelTo(req.DestinationKey)
	if err != nil {
		tradeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"quote":    quote,
		"event_id": id,
	})
}

type SpeedRequest struct {
	Speed int `json:"speed"`
}

func (s *Server) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	var req SpeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := s.engine.SetSpeed(clock.Speed(req.Speed)); err != nil {
		tradeError(w, err)
		return
	}
	writeJSON(w, s.engine.TimeInfo())
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.Snapshot())
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var snap save.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		http.Error(w, "Malformed snapshot", http.StatusBadRequest)
		return
	}

	s.engine.Restore(&snap)
	writeJSON(w, s.engine.Player())
}
