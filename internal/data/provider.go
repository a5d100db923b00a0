// Package data provides market quote providers.
//
// A Provider supplies the observed prices the implied-volatility solver
// works against: the underlying spot and an option's market premium.
// Providers may be chained; a provider that cannot answer a request
// delegates to its secondary.
package data

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/contactkeval/option-lab/internal/pricing"
)

// Provider supplies market data.
type Provider interface {
	Secondary() Provider
	GetSpotPrice(underlying string) (float64, error)
	GetOptionPrice(underlying string, strike float64, expiry time.Time, optType pricing.OptionType) (float64, error)
}

// OptionSymbolFromParts: improved OCC-like formatter (best-effort)
func OptionSymbolFromParts(underlying string, expiry time.Time, optType pricing.OptionType, strike float64) string {
	// OCC: <root><YYMMDD><C|P><strike*1000 padded to 8 digits>
	expDt := expiry.UTC().Format("060102")
	side := "C"
	if optType == pricing.Put {
		side = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	return fmt.Sprintf("O:%s%s%s%08d", strings.ToUpper(underlying), expDt, side, strikeInt)
}

// YearsToExpiry converts an expiry timestamp into the time-to-maturity
// input (in years) the pricing model expects.
func YearsToExpiry(expiry, asOf time.Time) float64 {
	return expiry.Sub(asOf).Hours() / (24 * 365)
}
