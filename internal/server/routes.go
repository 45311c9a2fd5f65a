package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"doko3000/internal/config"
	"doko3000/internal/database"
	"doko3000/internal/protocol"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const tokenTTL = 7 * 24 * time.Hour

// Backend is what the HTTP layer needs from the game service.
type Backend interface {
	Dispatcher
	Locator
	Authenticate(name, password string) (protocol.PlayerInfo, bool)
	Players() []protocol.PlayerInfo
	Tables() []protocol.TableInfo
	Results(ctx context.Context, playerName string) ([]database.ResultRecord, error)
}

type Handler struct {
	backend   Backend
	hub       *Hub
	tokenAuth *jwtauth.JWTAuth
	upgrader  websocket.Upgrader
	ctx       context.Context
}

// NewHandler wires the routes. ctx is handed to websocket clients and ends with the server.
func NewHandler(ctx context.Context, backend Backend, hub *Hub, cfg config.Config) *Handler {
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET_KEY is empty, tokens are signed with an empty key.")
	}
	return &Handler{
		backend:   backend,
		hub:       hub,
		tokenAuth: jwtauth.New("HS256", []byte(cfg.JWTSecret), nil),
		upgrader:  newUpgrader(cfg.AllowedOrigins),
		ctx:       ctx,
	}
}

// Router builds the chi router with the middleware stack.
func (h *Handler) Router(cfg config.Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.AccessLog())
	r.Use(middleware.Recoverer)
	r.Use(config.CORS(cfg.AllowedOrigins).Handler)
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))
	h.SetRoutes(r)
	return r
}

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.With(middleware.Timeout(10*time.Second)).Post("/login", h.Login)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/ws", h.WebSocket)
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(30 * time.Second))
				r.Get("/tables", h.ListTables)
				r.Get("/players", h.ListPlayers)
				r.Get("/results", h.ListResults)
			})
		})
	})
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string              `json:"token"`
	Player protocol.PlayerInfo `json:"player"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed login", http.StatusBadRequest)
		return
	}
	player, ok := h.backend.Authenticate(req.Name, req.Password)
	if !ok {
		http.Error(w, "wrong name or password", http.StatusUnauthorized)
		return
	}

	expires := time.Now().Add(tokenTTL)
	_, token, err := h.tokenAuth.Encode(map[string]interface{}{
		"player_id": player.ID,
		"exp":       expires.Unix(),
	})
	if err != nil {
		log.WithError(err).Error("Encoding token failed.")
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	log.Infof("Player %s logged in.", player.Name)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Player: player})
}

// playerID reads the player from the verified token.
func playerID(r *http.Request) (string, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", err
	}
	id, _ := claims["player_id"].(string)
	if id == "" {
		return "", errors.New("token without player")
	}
	return id, nil
}

func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	ServeWs(h.ctx, h.hub, h.backend, h.upgrader, w, r, id)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.Tables())
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.Players())
}

func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.backend.Results(r.Context(), r.URL.Query().Get("player"))
	if err != nil {
		log.WithError(err).Error("Fetching results failed.")
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("Writing response failed: %v", err)
	}
}
