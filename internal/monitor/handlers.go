// Package monitor exposes the HTTP surface of the Parley server: the stats
// API consumed by the dashboard, a health check, the dashboard page itself,
// and the WebSocket bridge into the chat core.
package monitor

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/parleyhq/parley/internal/chat"
)

// API bundles the handlers for the monitoring and bridge endpoints around
// the supervisor they observe.
type API struct {
	supervisor *chat.Supervisor
	policy     *originPolicy
	upgrader   websocket.Upgrader
}

// NewAPI creates the handler set for the given supervisor. allowedOrigins
// follows the same syntax as the ALLOWED_ORIGINS environment variable.
func NewAPI(supervisor *chat.Supervisor, allowedOrigins []string) *API {
	policy := newOriginPolicy(allowedOrigins)
	return &API{
		supervisor: supervisor,
		policy:     policy,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.checkOrigin,
		},
	}
}

// Routes configures and returns the router with all monitoring endpoints.
func (a *API) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", a.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", a.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/health", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", a.handleWebSocket).Methods(http.MethodGet)
	return r
}

// handleStats serves the supervisor's current snapshot as JSON.
func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	if !a.applyCORS(w, r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.supervisor.Snapshot()); err != nil {
		log.Printf("Error encoding stats response: %v", err)
	}
}

// handleHealth reports liveness for probes and the dashboard banner.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !a.applyCORS(w, r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	response := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding health response: %v", err)
	}
}

// handleWebSocket upgrades the connection and hands it to the chat
// supervisor as a regular line-transport session.
func (a *API) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	a.supervisor.Attach(newWSLineConn(conn))
}

// applyCORS sets the CORS header for allowed cross-origin API calls and
// reports whether the request may proceed.
func (a *API) applyCORS(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if !a.policy.allow(r) {
		return false
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	return true
}
