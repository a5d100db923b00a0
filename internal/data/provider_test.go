package data

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-lab/internal/pricing"
)

func TestOptionSymbolFromParts(t *testing.T) {
	expiry := time.Date(2026, 6, 19, 0, 0, 0, 0, time.UTC)
	sym := OptionSymbolFromParts("aapl", expiry, pricing.Call, 187.5)
	assert.Equal(t, "O:AAPL260619C00187500", sym)

	sym = OptionSymbolFromParts("SPY", expiry, pricing.Put, 450)
	assert.Equal(t, "O:SPY260619P00450000", sym)
}

func TestSyntheticProviderQuotes(t *testing.T) {
	prov := NewSyntheticProvider(100, 0.2, 0.05)
	synth := prov.(*synthDataProvider)
	asOf := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	synth.now = func() time.Time { return asOf }

	spot, err := prov.GetSpotPrice("SPY")
	require.NoError(t, err)
	assert.Equal(t, 100.0, spot)

	expiry := asOf.AddDate(1, 0, 0)
	quote, err := prov.GetOptionPrice("SPY", 100, expiry, pricing.Call)
	require.NoError(t, err)

	// The quote is the flat-vol model price, so solving it back must
	// recover the configured volatility.
	iv, err := pricing.ImpliedVolatility(100, 100, 0.05, YearsToExpiry(expiry, asOf), quote, pricing.Call)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, iv, 1e-3)
}

func TestSyntheticProviderRejectsPastExpiry(t *testing.T) {
	prov := NewSyntheticProvider(100, 0.2, 0.05)
	_, err := prov.GetOptionPrice("SPY", 100, time.Now().AddDate(0, 0, -1), pricing.Call)
	require.Error(t, err)
}

func TestMassiveProviderPrevClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v2/aggs/ticker/")
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("apiKey"), "key must not appear in the URL")
		fmt.Fprintln(w, `{"ticker":"SPY","status":"OK","results":[{"c":451.25}]}`)
	}))
	defer srv.Close()

	prov := NewMassiveDataProvider("test-key", srv.URL, nil)

	spot, err := prov.GetSpotPrice("SPY")
	require.NoError(t, err)
	assert.Equal(t, 451.25, spot)
}

func TestMassiveProviderFallsBackToSecondary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	prov := NewMassiveDataProvider("test-key", srv.URL, NewSyntheticProvider(100, 0.2, 0.05))

	spot, err := prov.GetSpotPrice("SPY")
	require.NoError(t, err)
	assert.Equal(t, 100.0, spot)
}
