package earnings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	domainbooking "buckler/internal/domain/booking"
	domainearnings "buckler/internal/domain/earnings"
	"buckler/internal/domain/shared/errs"
)

func TestComputeEarningsRequiresRatesForVertical(t *testing.T) {
	h := &ComputeEarningsHandler{
		Rates: map[domainbooking.Vertical]domainearnings.Rates{
			domainbooking.VerticalRental: {PlatformFeeRate: decimal.RequireFromString("0.15"), PayoutDelayDays: 7},
		},
		Currency: "KES",
	}

	_, err := h.Handle(context.Background(), ComputeEarningsQuery{ProviderID: "op-1", Vertical: "tour", Period: "month"})
	assert.ErrorIs(t, err, ErrRatesMissing)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Contains(t, err.Error(), "tour")

	_, err = h.Handle(context.Background(), ComputeEarningsQuery{Vertical: "rental", Period: "month"})
	assert.ErrorIs(t, err, ErrProviderRequired)
}
