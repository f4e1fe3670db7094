package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxeshopapp/luxeshop/internal/auth"
	"github.com/luxeshopapp/luxeshop/internal/config"
	"github.com/luxeshopapp/luxeshop/internal/lifecycle"
	"github.com/luxeshopapp/luxeshop/internal/logging"
	"github.com/luxeshopapp/luxeshop/internal/notify"
	"github.com/luxeshopapp/luxeshop/internal/services"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

// Handlers provides the JSON API handlers for the storefront and admin panel.
type Handlers struct {
	config          *config.Config
	db              *pgxpool.Pool
	tokens          *auth.TokenService
	notifier        notify.Notifier
	orderService    *services.OrderService
	shippingService *services.ShippingService
	returnService   *services.ReturnService
	productService  *services.ProductService
	adminService    *services.AdminService
	logger          *slog.Logger
}

type Dependencies struct {
	Config          *config.Config
	DB              *pgxpool.Pool
	Tokens          *auth.TokenService
	Notifier        notify.Notifier
	OrderService    *services.OrderService
	ShippingService *services.ShippingService
	ReturnService   *services.ReturnService
	ProductService  *services.ProductService
	AdminService    *services.AdminService
	Logger          *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("handlers dependencies: tokens is required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("handlers dependencies: notifier is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.ShippingService == nil {
		return nil, fmt.Errorf("handlers dependencies: shippingService is required")
	}
	if deps.ReturnService == nil {
		return nil, fmt.Errorf("handlers dependencies: returnService is required")
	}
	if deps.ProductService == nil {
		return nil, fmt.Errorf("handlers dependencies: productService is required")
	}
	if deps.AdminService == nil {
		return nil, fmt.Errorf("handlers dependencies: adminService is required")
	}

	return &Handlers{
		config:          deps.Config,
		db:              deps.DB,
		tokens:          deps.Tokens,
		notifier:        deps.Notifier,
		orderService:    deps.OrderService,
		shippingService: deps.ShippingService,
		returnService:   deps.ReturnService,
		productService:  deps.ProductService,
		adminService:    deps.AdminService,
		logger:          logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		h.writeErrorMessage(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) writeErrorMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, r, status, errorResponse{Error: message})
}

// writeError maps core errors onto HTTP statuses. Conflicting state and
// concurrent modification both come back as 409 so the caller re-fetches.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusForError(err)
	if status == http.StatusInternalServerError {
		h.loggerFromContext(r.Context()).Error("request failed", "error", err)
		message = "internal server error"
	}
	h.writeErrorMessage(w, r, status, message)
}

func statusForError(err error) (int, string) {
	var userErr services.UserError
	if errors.As(err, &userErr) {
		return http.StatusBadRequest, userErr.Message
	}

	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrInvalidStageTransition),
		errors.Is(err, lifecycle.ErrInvalidReturnTransition),
		errors.Is(err, lifecycle.ErrAlreadyAssigned),
		errors.Is(err, lifecycle.ErrReturnNotEligible),
		errors.Is(err, lifecycle.ErrConcurrentModification):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, ""
}

func SecureCookiesFromConfig(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL != "" {
		if parsed, err := url.Parse(baseURL); err == nil {
			return strings.EqualFold(parsed.Scheme, "https")
		}
	}

	return cfg.Port == "443" || cfg.Port == "8443"
}
