package data

import (
	"fmt"
	"time"

	"github.com/contactkeval/option-lab/internal/pricing"
)

// synthDataProvider generates deterministic quotes by pricing every
// option at a single flat volatility. Used offline and in tests; the
// implied vol recovered from its quotes is the configured flat vol.
type synthDataProvider struct {
	spot    float64
	flatVol float64
	rate    float64

	now       func() time.Time
	secondary Provider
}

// NewSyntheticProvider constructs a flat-vol quote provider.
func NewSyntheticProvider(spot, flatVol, rate float64) Provider {
	return &synthDataProvider{
		spot:    spot,
		flatVol: flatVol,
		rate:    rate,
		now:     time.Now,
	}
}

func (synthDataProv *synthDataProvider) Secondary() Provider {
	return synthDataProv.secondary
}

func (synthDataProv *synthDataProvider) GetSpotPrice(underlying string) (float64, error) {
	if synthDataProv.secondary != nil {
		return synthDataProv.secondary.GetSpotPrice(underlying)
	}
	return synthDataProv.spot, nil
}

func (synthDataProv *synthDataProvider) GetOptionPrice(underlying string, strike float64, expiry time.Time, optType pricing.OptionType) (float64, error) {
	if synthDataProv.secondary != nil {
		return synthDataProv.secondary.GetOptionPrice(underlying, strike, expiry, optType)
	}

	t := YearsToExpiry(expiry, synthDataProv.now())
	if t <= 0 {
		return 0, fmt.Errorf("synthetic quote: expiry %s is in the past", expiry.Format("2006-01-02"))
	}

	return pricing.Evaluate(pricing.Params{
		S:     synthDataProv.spot,
		K:     strike,
		R:     synthDataProv.rate,
		Sigma: synthDataProv.flatVol,
		T:     t,
		Type:  optType,
	}, pricing.Value)
}
