package services

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/luxeshopapp/luxeshop/internal/logging"
	"github.com/luxeshopapp/luxeshop/internal/models"
)

// AdminService serves the dashboard aggregates.
type AdminService struct {
	orders orderRepository
	logger *slog.Logger
}

func NewAdminService(orders orderRepository, logger *slog.Logger) *AdminService {
	return &AdminService{orders: orders, logger: logger}
}

func (s *AdminService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *AdminService) Stats(ctx context.Context) (*models.AdminStats, error) {
	span := sentry.StartSpan(
		ctx,
		"service.admin.stats",
		sentry.WithOpName("service.admin"),
		sentry.WithDescription("Stats"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	stats, err := s.orders.Stats(ctx)
	if err != nil {
		s.loggerFromContext(ctx).Error("failed to compute dashboard stats", "error", err)
		return nil, err
	}
	return stats, nil
}
