package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/buildmart/marketplace-api/internal/repository"
	"github.com/buildmart/marketplace-api/internal/service"
	"github.com/buildmart/marketplace-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "QR-2026-000042", service.FormatDocumentNumber("QR", 2026, 42))
	assert.Equal(t, "ORD-2026-1234567", service.FormatDocumentNumber("ORD", 2026, 1234567))
}

func TestNumberSequenceService_PrefixesAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewNumberSequenceService(
		repository.NewNumberSequenceRepository(db),
		config.QuotesConfig{QuoteRequestPrefix: "QR", QuoteResponsePrefix: "QS", OrderPrefix: "ORD"},
		zap.NewNop(),
	)
	ctx := context.Background()
	year := time.Now().UTC().Year()

	first, err := svc.GenerateQuoteNumber(ctx)
	require.NoError(t, err)
	second, err := svc.GenerateQuoteNumber(ctx)
	require.NoError(t, err)
	response, err := svc.GenerateResponseNumber(ctx)
	require.NoError(t, err)
	order, err := svc.GenerateOrderNumber(ctx)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("QR-%d-000001", year), first)
	assert.Equal(t, fmt.Sprintf("QR-%d-000002", year), second)
	assert.Equal(t, fmt.Sprintf("QS-%d-000001", year), response)
	assert.Equal(t, fmt.Sprintf("ORD-%d-000001", year), order)
}
