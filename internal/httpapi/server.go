// Package httpapi exposes the scheduling use-cases over HTTP using the
// same router and CORS middleware pattern as the teacher's internal/api
// package, trimmed of the M3/OAuth session surface this domain has no
// use for.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/pinggolf/m3-planning-tools/internal/config"
	"github.com/pinggolf/m3-planning-tools/internal/domain"
	"github.com/pinggolf/m3-planning-tools/internal/scheduling"
	"github.com/pinggolf/m3-planning-tools/internal/store"
)

// Server exposes the scheduling service over HTTP.
type Server struct {
	config  *config.Config
	router  *mux.Router
	service *scheduling.Service
	store   store.Store
	limiter *rate.Limiter
}

// NewServer builds a Server wired to the scheduling service. Requests
// exceeding cfg's throttle settings receive 429 Too Many Requests: the
// genetic sequencer is expensive enough per call that an unthrottled
// client can starve every other machine's scheduling request.
func NewServer(cfg *config.Config, svc *scheduling.Service, st store.Store) *Server {
	s := &Server{
		config:  cfg,
		router:  mux.NewRouter(),
		service: svc,
		store:   st,
		limiter: rate.NewLimiter(rate.Limit(cfg.APIThrottleRequestsPerSecond), cfg.APIThrottleBurstSize),
	}
	s.setupRoutes()
	return s
}

// Router returns the configured HTTP router wrapped with throttling and
// CORS.
func (s *Server) Router() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.config.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: s.config.CORSAllowCredentials,
		MaxAge:           300,
	})
	return c.Handler(s.throttleMiddleware(s.router))
}

func (s *Server) throttleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	api.HandleFunc("/machines/{id}/schedule/generate", s.handleGenerateOptimalSchedule).Methods("POST")
	api.HandleFunc("/machines/{id}/schedule/recalculate", s.handleRecalculateDeliveryDates).Methods("POST")
	api.HandleFunc("/schedule/generate-all", s.handleGenerateOptimalScheduleAllMachines).Methods("POST")
	api.HandleFunc("/orders/{id}/prioritize", s.handlePrioritizeOrder).Methods("POST")

	api.HandleFunc("/machines/{id}/status", s.handleUpdateMachineStatus).Methods("PUT")
	api.HandleFunc("/machines", s.handleListMachines).Methods("GET")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (s *Server) handleGenerateOptimalSchedule(w http.ResponseWriter, r *http.Request) {
	result := s.service.GenerateOptimalSchedule(r.Context(), machineRef(r, "id"))
	writeResult(w, result)
}

func (s *Server) handleGenerateOptimalScheduleAllMachines(w http.ResponseWriter, r *http.Request) {
	reoptimize := r.URL.Query().Get("reoptimize") == "true"
	result := s.service.GenerateOptimalScheduleAllMachines(r.Context(), reoptimize)
	writeResult(w, result)
}

func (s *Server) handleRecalculateDeliveryDates(w http.ResponseWriter, r *http.Request) {
	result := s.service.RecalculateDeliveryDates(r.Context(), machineRef(r, "id"))
	writeResult(w, result)
}

func (s *Server) handlePrioritizeOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathInt64(r, "id")
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	reoptimize := r.URL.Query().Get("reoptimize") == "true"
	result := s.service.PrioritizeOrder(r.Context(), orderID, reoptimize)
	writeResult(w, result)
}

// handleUpdateMachineStatus is the supplemented maintenance endpoint
// (carried over from the original implementation's update_estado_maquina):
// it flips a machine's status and, optionally, its functional ink count,
// without touching the production queue.
func (s *Server) handleUpdateMachineStatus(w http.ResponseWriter, r *http.Request) {
	machineID, err := pathInt64(r, "id")
	if err != nil {
		http.Error(w, "invalid machine id", http.StatusBadRequest)
		return
	}

	var body struct {
		Status         *string `json:"status"`
		FunctionalInks *int    `json:"functional_inks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var statusPtr *domain.MachineStatus
	if body.Status != nil {
		st := domain.MachineStatus(*body.Status)
		statusPtr = &st
	}

	found, err := s.store.UpdateMachineStatus(r.Context(), machineID, statusPtr, body.FunctionalInks)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "machine_id": machineID})
}

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.store.GetAllMachineStatus(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"machines": machines})
}

func pathInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// machineRef returns the raw {id} path segment for routes that accept a
// machine reference (numeric id, name, or pseudonym) and let the
// service resolve it.
func machineRef(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeResult(w http.ResponseWriter, result scheduling.Result) {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}
