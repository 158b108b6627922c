package service

import (
	"context"
	"fmt"
	"time"

	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/buildmart/marketplace-api/internal/repository"
	"go.uber.org/zap"
)

// NumberSequenceService generates the human-readable document numbers for
// quote requests, quote responses and orders. Each prefix keeps its own
// counter per year.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: QR-2026-000042, ORD-2026-000007
type NumberSequenceService struct {
	repo     *repository.NumberSequenceRepository
	prefixes config.QuotesConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	prefixes config.QuotesConfig,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:     repo,
		prefixes: prefixes,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *NumberSequenceService) GenerateQuoteNumber(ctx context.Context) (string, error) {
	return s.generateNumber(ctx, s.prefixes.QuoteRequestPrefix, "quote request")
}

func (s *NumberSequenceService) GenerateResponseNumber(ctx context.Context) (string, error) {
	return s.generateNumber(ctx, s.prefixes.QuoteResponsePrefix, "quote response")
}

func (s *NumberSequenceService) GenerateOrderNumber(ctx context.Context) (string, error) {
	return s.generateNumber(ctx, s.prefixes.OrderPrefix, "order")
}

// generateNumber must not be called inside another transaction: the counter
// is incremented in its own short transaction so the row lock is released
// immediately. A number consumed by a rolled back operation leaves a gap.
func (s *NumberSequenceService) generateNumber(ctx context.Context, prefix, entityType string) (string, error) {
	year := s.now().UTC().Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, prefix, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("prefix", prefix),
			zap.Int("year", year),
			zap.String("entityType", entityType),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate %s number: %w", entityType, err)
	}

	number := FormatDocumentNumber(prefix, year, nextSeq)

	s.logger.Debug("generated number",
		zap.String("number", number),
		zap.String("entityType", entityType))

	return number, nil
}

// FormatDocumentNumber renders PREFIX-YYYY-NNNNNN
func FormatDocumentNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}
