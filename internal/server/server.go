// Package server wires the console's JSON endpoints, one group per page,
// in front of the backend REST API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/archive"
	"github.com/dukerupert/backoffice/internal/chat"
	"github.com/dukerupert/backoffice/internal/haccp"
	"github.com/dukerupert/backoffice/internal/handler"
	"github.com/dukerupert/backoffice/internal/middleware"
	"github.com/dukerupert/backoffice/internal/product"
	"github.com/dukerupert/backoffice/internal/reception"
	"github.com/dukerupert/backoffice/internal/recipe"
	"github.com/dukerupert/backoffice/internal/restaurant"
	"github.com/dukerupert/backoffice/internal/store"
	ws "github.com/dukerupert/backoffice/internal/websocket"
)

const (
	chatLimit       = 20
	signInLimit     = 10
	rateLimitWindow = time.Minute
)

type Config struct {
	ChatURL    string
	ChatModel  string
	ChatPrompt string
	// OriginPatterns lists the hosts whose pages may open the websocket.
	OriginPatterns []string
}

type Server struct {
	cfg         Config
	hub         *ws.Hub
	local       *store.LocalStore
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger

	sessionH    *handler.SessionHandler
	restaurantH *handler.RestaurantHandler
	productH    *handler.ProductHandler
	recipeH     *handler.RecipeHandler
	receptionH  *handler.ReceptionHandler
	haccpH      *handler.HACCPHandler
	chatH       *handler.ChatHandler
}

func New(cfg Config, client *api.Client, local *store.LocalStore, chats *store.ChatStore, archiver *archive.Archiver, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger)

	s := &Server{
		cfg:         cfg,
		hub:         hub,
		local:       local,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}

	s.sessionH = handler.NewSessionHandler(local, client.BaseURL(), logger.With("component", "session"))
	s.restaurantH = handler.NewRestaurantHandler(restaurant.NewService(client), hub)
	s.productH = handler.NewProductHandler(product.NewService(client), hub, logger.With("component", "product"))
	s.recipeH = handler.NewRecipeHandler(recipe.NewService(client), hub)
	s.receptionH = handler.NewReceptionHandler(reception.NewService(client), archiver, hub, logger.With("component", "reception"))
	s.haccpH = handler.NewHACCPHandler(haccp.NewService(client, logger), archiver, hub, logger.With("component", "haccp"))
	s.chatH = handler.NewChatHandler(s.chatSession(chats), chats, hub, logger.With("component", "chat"))

	return s
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// chatSession builds a session from the stored key and model override.
func (s *Server) chatSession(history chat.History) handler.SessionFactory {
	return func(ctx context.Context) (*chat.Session, error) {
		key, err := s.local.Get(store.ChatAPIKeyKey)
		if errors.Is(err, store.ErrNotFound) {
			return nil, chat.ErrNoAPIKey
		}
		if err != nil {
			return nil, err
		}
		name := s.cfg.ChatModel
		if m, err := s.local.Get(store.ChatModelKey); err == nil && m != "" {
			name = m
		}
		model, err := chat.NewOpenAIModel(key, s.cfg.ChatURL, name)
		if err != nil {
			return nil, err
		}
		opts := []chat.Option{chat.WithLogger(s.logger)}
		if s.cfg.ChatPrompt != "" {
			opts = append(opts, chat.WithSystemPrompt(s.cfg.ChatPrompt))
		}
		return chat.NewSession(model, history, opts...), nil
	}
}

// StartJanitor drops expired rate-limit windows until ctx is done.
func (s *Server) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.rateLimiter.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger, s.cfg.OriginPatterns...))
	outerMux.HandleFunc("GET /api/session", s.sessionH.Get)
	outerMux.HandleFunc("POST /api/session", s.rateLimited("sign-in", s.sessionH.SignIn, signInLimit))
	outerMux.HandleFunc("DELETE /api/session", s.sessionH.SignOut)
	outerMux.HandleFunc("GET /api/storage", s.sessionH.Storage)
	outerMux.HandleFunc("PUT /api/settings/chat", s.sessionH.ChatSettings)

	// Chat talks to the model provider, not the backend, so it does not
	// need a backend token.
	outerMux.HandleFunc("GET /api/chat", s.chatH.History)
	outerMux.HandleFunc("POST /api/chat", s.rateLimited("chat", s.chatH.Send, chatLimit))
	outerMux.HandleFunc("DELETE /api/chat", s.chatH.Clear)

	protectedMux := http.NewServeMux()
	s.registerPageRoutes(protectedMux)
	outerMux.Handle("/api/", middleware.RequireToken(s.local)(protectedMux))

	var h http.Handler = outerMux
	h = middleware.Recover(s.logger)(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "clients": s.hub.ClientCount()})
}

func (s *Server) rateLimited(scope string, h http.HandlerFunc, limit int) http.HandlerFunc {
	key := middleware.Scoped(scope, middleware.RealIP)
	return middleware.RateLimit(s.rateLimiter, key, limit, rateLimitWindow)(h).ServeHTTP
}

func (s *Server) registerPageRoutes(mux *http.ServeMux) {
	// Restaurants
	mux.HandleFunc("GET /api/restaurants", s.restaurantH.List)
	mux.HandleFunc("POST /api/restaurants", s.restaurantH.Create)
	mux.HandleFunc("GET /api/restaurants/{id}", s.restaurantH.Get)
	mux.HandleFunc("PUT /api/restaurants/{id}", s.restaurantH.Update)
	mux.HandleFunc("DELETE /api/restaurants/{id}", s.restaurantH.Delete)
	mux.HandleFunc("POST /api/restaurants/{id}/suspend", s.restaurantH.Suspend)
	mux.HandleFunc("POST /api/restaurants/{id}/activate", s.restaurantH.Activate)
	mux.HandleFunc("GET /api/restaurants/{id}/settings", s.restaurantH.Settings)
	mux.HandleFunc("PATCH /api/restaurants/{id}/settings", s.restaurantH.UpdateSetting)
	mux.HandleFunc("GET /api/restaurants/{id}/stats", s.restaurantH.Stats)

	// Products
	mux.HandleFunc("GET /api/products", s.productH.List)
	mux.HandleFunc("POST /api/products", s.productH.Create)
	mux.HandleFunc("GET /api/products/export.xlsx", s.productH.Export)
	mux.HandleFunc("GET /api/products/{id}", s.productH.Get)
	mux.HandleFunc("PUT /api/products/{id}", s.productH.Update)
	mux.HandleFunc("DELETE /api/products/{id}", s.productH.Delete)
	mux.HandleFunc("PATCH /api/products/{id}/availability", s.productH.SetAvailability)
	mux.HandleFunc("POST /api/products/{id}/image", s.productH.UploadImage)

	// Recipes
	mux.HandleFunc("GET /api/recipes", s.recipeH.List)
	mux.HandleFunc("POST /api/recipes", s.recipeH.Create)
	mux.HandleFunc("GET /api/recipes/suggestions/{kind}", s.recipeH.Suggestions)
	mux.HandleFunc("GET /api/recipes/{id}", s.recipeH.Get)
	mux.HandleFunc("PUT /api/recipes/{id}", s.recipeH.Update)
	mux.HandleFunc("DELETE /api/recipes/{id}", s.recipeH.Delete)
	mux.HandleFunc("POST /api/recipes/{id}/validate", s.recipeH.Validate)

	// Receptions
	mux.HandleFunc("GET /api/receptions", s.receptionH.List)
	mux.HandleFunc("POST /api/receptions", s.receptionH.Create)
	mux.HandleFunc("GET /api/receptions/batch-check/{sku}", s.receptionH.BatchCheck)
	mux.HandleFunc("GET /api/receptions/{id}", s.receptionH.Get)
	mux.HandleFunc("GET /api/receptions/{id}/items", s.receptionH.Items)
	mux.HandleFunc("POST /api/receptions/{id}/items/{item}/validate", s.receptionH.ValidateItem)
	mux.HandleFunc("POST /api/receptions/{id}/complete", s.receptionH.Complete)
	mux.HandleFunc("POST /api/receptions/{id}/photos", s.receptionH.UploadPhoto)

	// HACCP
	mux.HandleFunc("GET /api/haccp", s.haccpH.Dashboard)
	mux.HandleFunc("POST /api/haccp/archive", s.haccpH.Archive)
	mux.HandleFunc("GET /api/haccp/archive", s.haccpH.Archives)
}
