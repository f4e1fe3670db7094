package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/luxeshopapp/luxeshop/internal/config"
	"github.com/luxeshopapp/luxeshop/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// The SSE stream needs an unbounded write window.
		WriteTimeout:   0,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.MetricsContext)
	r.Use(h.SecurityHeaders)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Public storefront
	r.HandleFunc("/api/products", h.ListProducts).Methods("GET").Name("products.list")
	r.HandleFunc("/api/products/{id}", h.GetProduct).Methods("GET").Name("products.get")

	// Customer routes - require a valid token
	customerRouter := r.PathPrefix("/api").Subrouter()
	customerRouter.Use(h.RequireAuth)
	customerRouter.HandleFunc("/orders", h.CreateOrder).Methods("POST").Name("orders.create")
	customerRouter.HandleFunc("/orders", h.ListOrders).Methods("GET").Name("orders.list")
	customerRouter.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET").Name("orders.get")
	customerRouter.HandleFunc("/orders/{id}/cancel", h.CancelOrder).Methods("POST").Name("orders.cancel")
	customerRouter.HandleFunc("/orders/{id}/return", h.RequestReturn).Methods("POST").Name("orders.return")
	customerRouter.HandleFunc("/events", h.Events).Methods("GET").Name("events.stream")

	// Admin routes - require the admin claim
	adminRouter := r.PathPrefix("/admin/api").Subrouter()
	adminRouter.Use(h.RequireAuth)
	adminRouter.Use(h.RequireAdmin)
	adminRouter.Use(h.RequireSameOrigin)
	adminRouter.HandleFunc("/orders", h.AdminListOrders).Methods("GET").Name("admin.orders.list")
	adminRouter.HandleFunc("/orders/{id}/status", h.AdminUpdateOrderStatus).Methods("POST").Name("admin.orders.status")
	adminRouter.HandleFunc("/orders/{id}/shipping", h.AdminAssignShipping).Methods("POST").Name("admin.orders.shipping")
	adminRouter.HandleFunc("/shipping/{id}/stage", h.AdminAdvanceShippingStage).Methods("POST").Name("admin.shipping.stage")
	adminRouter.HandleFunc("/returns/{id}/status", h.AdminUpdateReturnStatus).Methods("POST").Name("admin.returns.status")
	adminRouter.HandleFunc("/stats", h.AdminStats).Methods("GET").Name("admin.stats")
	adminRouter.HandleFunc("/products", h.AdminListProducts).Methods("GET").Name("admin.products.list")
	adminRouter.HandleFunc("/products", h.AdminCreateProduct).Methods("POST").Name("admin.products.create")
	adminRouter.HandleFunc("/products/{id}", h.AdminUpdateProduct).Methods("PATCH").Name("admin.products.update")
	adminRouter.HandleFunc("/products/{id}", h.AdminDeleteProduct).Methods("DELETE").Name("admin.products.delete")

	return r
}
