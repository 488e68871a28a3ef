// Package api provides the HTTP API for generating and browsing maps.
// GET endpoints are public. Creating and deleting maps requires a bearer
// token (admin control plane).
package api

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/talgya/hexforge/internal/mapgen"
	"github.com/talgya/hexforge/internal/persistence"
	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/social"
	"github.com/talgya/hexforge/internal/world"
)

const (
	maxMajors        = 16
	maxCityStates    = 24
	maxTiles         = 20000
	maxBodyBytes     = 1 << 16
	defaultListLimit = 50
	maxListLimit     = 500

	defaultThumbWidth = 512
	minThumbWidth     = 16
	maxThumbWidth     = 2048

	// defaultGenerateLimit is the number of generations allowed per client
	// per hour.
	defaultGenerateLimit = 30
)

// Server serves stored maps and runs generations over HTTP.
type Server struct {
	DB       *persistence.DB
	Rules    *ruleset.Ruleset
	Seeds    mapgen.SeedSource // Resolves zero seeds. Nil uses crypto/rand.
	Port     int
	AdminKey string // Bearer token for write endpoints. Empty = writes disabled.

	// GenerateLimit caps generations per client per hour. Zero uses the default.
	GenerateLimit int
}

// generateRequest is the body of POST /api/v1/maps and the first message of
// a generation stream.
type generateRequest struct {
	Params     world.Params `json:"params"`
	Majors     int          `json:"majors"`
	CityStates int          `json:"city_states"`
}

func defaultRequest() generateRequest {
	return generateRequest{Params: world.DefaultParams(), Majors: 4, CityStates: 4}
}

func (req *generateRequest) validate() error {
	if req.Majors < 0 || req.Majors > maxMajors {
		return fmt.Errorf("majors must be between 0 and %d", maxMajors)
	}
	if req.CityStates < 0 || req.CityStates > maxCityStates {
		return fmt.Errorf("city_states must be between 0 and %d", maxCityStates)
	}
	if err := req.Params.Validate(); err != nil {
		return err
	}
	radius, width, height := req.Params.Dimensions()
	tiles := width * height
	if req.Params.Shape == world.Hexagonal {
		tiles = 3*radius*(radius+1) + 1
	}
	if tiles > maxTiles {
		return fmt.Errorf("%w: %d tiles exceeds the limit of %d", world.ErrInvalidParams, tiles, maxTiles)
	}
	return nil
}

// createResponse is returned by POST /api/v1/maps.
type createResponse struct {
	ID string `json:"id"`
	*mapgen.Result
	Preview world.Preview `json:"preview"`
}

// Handler builds the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	generateLimiter := NewRateLimiter(cmp.Or(s.GenerateLimit, defaultGenerateLimit), time.Hour)

	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	// Public endpoints.
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/maps", s.handleListMaps).Methods(http.MethodGet)
	v1.HandleFunc("/maps/{id}", s.handleGetMap).Methods(http.MethodGet)
	v1.HandleFunc("/maps/{id}/preview", s.handlePreview).Methods(http.MethodGet)
	v1.HandleFunc("/maps/{id}/thumbnail.png", s.handleThumbnail).Methods(http.MethodGet)
	v1.HandleFunc("/maps/{id}/starts.geojson", s.handleStartsGeoJSON).Methods(http.MethodGet)

	// Websocket generation stream. Results are not stored.
	v1.HandleFunc("/generate/stream", RateLimitMiddleware(generateLimiter, s.handleStream)).Methods(http.MethodGet)

	// Admin endpoints.
	v1.HandleFunc("/maps", s.adminOnly(RateLimitMiddleware(generateLimiter, s.handleCreateMap))).Methods(http.MethodPost)
	v1.HandleFunc("/maps/{id}", s.adminOnly(s.handleDeleteMap)).Methods(http.MethodDelete)

	return corsMiddleware(r)
}

// Start begins serving the HTTP API in a goroutine. The returned server can
// be shut down by the caller.
func (s *Server) Start() *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// allowedOrigins returns the origins CORS and websocket upgrades accept.
// Set CORS_ORIGINS to a comma-separated list to add to the localhost dev
// servers.
func allowedOrigins() map[string]bool {
	origins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins[origin] = true
			}
		}
	}
	return origins
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(next http.Handler) http.Handler {
	allowed := allowedOrigins()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on anything but GET.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no HEXFORGE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

// generate resolves the seed first so city-state names follow it too.
func (s *Server) generate(req generateRequest, progress func(mapgen.Event)) (*mapgen.Result, error) {
	params := req.Params
	if params.Seed == 0 && s.Seeds != nil {
		seed, err := s.Seeds.Seed()
		if err != nil {
			return nil, fmt.Errorf("resolve seed: %w", err)
		}
		params.Seed = seed
	}

	opts := []mapgen.Option{}
	if s.Seeds != nil {
		opts = append(opts, mapgen.WithSeedSource(s.Seeds))
	}
	if progress != nil {
		opts = append(opts, mapgen.WithProgress(progress))
	}
	g := mapgen.New(s.Rules, opts...)

	minors := social.NewCityStates(rand.New(rand.NewSource(params.Seed)), req.CityStates)
	return g.Generate(params, social.DefaultMajors(req.Majors), minors)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ruleset":         s.Rules.Name,
		"terrains":        len(s.Rules.Terrains),
		"features":        len(s.Rules.Features),
		"resources":       len(s.Rules.Resources),
		"natural_wonders": len(s.Rules.NaturalWonders()),
		"admin_enabled":   s.AdminKey != "",
	})
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	maps, err := s.DB.ListPreviews(limit)
	if err != nil {
		slog.Error("list maps", "error", err)
		http.Error(w, "failed to list maps", http.StatusInternalServerError)
		return
	}
	writeJSON(w, maps)
}

func (s *Server) handleCreateMap(w http.ResponseWriter, r *http.Request) {
	req := defaultRequest()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	res, err := s.generate(req, nil)
	if err != nil {
		if errors.Is(err, world.ErrInvalidParams) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("generate map", "error", err)
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	}

	id, err := s.DB.SaveMap(res.Map)
	if err != nil {
		slog.Error("save map", "error", err)
		http.Error(w, "failed to save map", http.StatusInternalServerError)
		return
	}
	slog.Info("map created", "id", id, "seed", res.Seed, "tiles", res.Map.Len(),
		"starts", len(res.Starts), "unplaced", len(res.Unplaced), "elapsed", time.Since(start))

	w.Header().Set("Location", "/api/v1/maps/"+id)
	writeJSONStatus(w, http.StatusCreated, createResponse{ID: id, Result: res, Preview: res.Map.Preview()})
}

// loadMap fetches the map named in the route and writes the error response
// when it cannot.
func (s *Server) loadMap(w http.ResponseWriter, r *http.Request) (*world.Map, bool) {
	id := mux.Vars(r)["id"]
	m, err := s.DB.LoadMap(id, s.Rules)
	if err != nil {
		s.storeError(w, "load map", id, err)
		return nil, false
	}
	return m, true
}

func (s *Server) storeError(w http.ResponseWriter, op, id string, err error) {
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, fmt.Sprintf("map %q not found", id), http.StatusNotFound)
		return
	}
	slog.Error(op, "id", id, "error", err)
	http.Error(w, op+" failed", http.StatusInternalServerError)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMap(w, r)
	if !ok {
		return
	}
	writeJSON(w, m.Snapshot())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := s.DB.Preview(id)
	if err != nil {
		s.storeError(w, "preview", id, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width := defaultThumbWidth
	if v := q.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minThumbWidth || n > maxThumbWidth {
			http.Error(w, fmt.Sprintf("width must be between %d and %d", minThumbWidth, maxThumbWidth), http.StatusBadRequest)
			return
		}
		width = n
	}
	mode, err := ParseRenderMode(q.Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, ok := s.loadMap(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := png.Encode(w, Render(m, mode, width)); err != nil {
		slog.Warn("encode thumbnail", "error", err)
	}
}

func (s *Server) handleStartsGeoJSON(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMap(w, r)
	if !ok {
		return
	}
	data, err := StartsGeoJSON(m)
	if err != nil {
		slog.Error("encode geojson", "error", err)
		http.Error(w, "failed to encode starts", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) handleDeleteMap(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.DB.DeleteMap(id); err != nil {
		s.storeError(w, "delete map", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
