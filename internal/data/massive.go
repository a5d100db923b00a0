// Package data: Massive-backed Provider implementation that retrieves
// spot and option prices via Massive HTTP APIs.
//
// Design notes:
//   - Uses raw HTTP calls instead of the official Massive SDK
//   - Retries on per-minute rate limits, with fallback to a secondary provider
//   - Logging is intentionally verbose at Debug/Trace levels for diagnostics
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/contactkeval/option-lab/internal/logger"
	"github.com/contactkeval/option-lab/internal/pricing"
)

// massiveDataProvider implements the Provider interface using Massive APIs.
type massiveDataProvider struct {
	// APIKey used for authenticating requests with Massive.
	APIKey string

	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint for Massive APIs
	// (e.g., https://api.massive.com).
	BaseURL string

	// secondary is an optional fallback provider.
	secondary Provider
}

// massiveAggsResp models the previous-close aggregate response, the
// single endpoint shape this provider needs for both spot and option
// premiums.
type massiveAggsResp struct {
	Ticker  string `json:"ticker"`
	Status  string `json:"status"`
	Results []struct {
		Close float64 `json:"c"`
	} `json:"results"`
}

// NewMassiveDataProvider constructs a Massive-backed quote provider.
// baseURL may be empty to use the production endpoint.
//
// It initializes an HTTP client with sensible defaults for timeouts,
// connection pooling, HTTP/2 support, and gzip decompression.
func NewMassiveDataProvider(apiKey, baseURL string, secondary Provider) Provider {
	logger.Infof("initializing Massive data provider")

	if baseURL == "" {
		baseURL = "https://api.massive.com"
	}

	return &massiveDataProvider{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableCompression:    false, // must be false to enable gzip auto-decompression
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL:   baseURL,
		secondary: secondary,
	}
}

// Secondary returns the configured secondary Provider, if any.
func (massiveDataProv *massiveDataProvider) Secondary() Provider {
	return massiveDataProv.secondary
}

// GetSpotPrice returns the previous close of the underlying.
func (massiveDataProv *massiveDataProvider) GetSpotPrice(underlying string) (float64, error) {
	price, err := massiveDataProv.prevClose(underlying)
	if err != nil && massiveDataProv.secondary != nil {
		logger.Debugf("spot price fallback to secondary provider: %v", err)
		return massiveDataProv.secondary.GetSpotPrice(underlying)
	}
	return price, err
}

// GetOptionPrice returns the previous close of the option contract
// identified by underlying, strike, expiry and type.
func (massiveDataProv *massiveDataProvider) GetOptionPrice(underlying string, strike float64, expiry time.Time, optType pricing.OptionType) (float64, error) {
	symbol := OptionSymbolFromParts(underlying, expiry, optType, strike)
	logger.Tracef("option quote request: %s", symbol)

	price, err := massiveDataProv.prevClose(symbol)
	if err != nil && massiveDataProv.secondary != nil {
		logger.Debugf("option quote fallback to secondary provider: %v", err)
		return massiveDataProv.secondary.GetOptionPrice(underlying, strike, expiry, optType)
	}
	return price, err
}

// prevClose fetches the previous-close aggregate for any ticker,
// including OCC option symbols.
func (massiveDataProv *massiveDataProvider) prevClose(ticker string) (float64, error) {
	// Auth travels in the Authorization header only, keeping the key
	// out of URLs and logs.
	reqURL := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?adjusted=true",
		massiveDataProv.BaseURL, ticker)

	logger.Debugf("prev close request URL: %s", reqURL)

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+massiveDataProv.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "massive-client/1.0")

	resp, err := massiveDataProv.processGetRequest(req)
	if err != nil {
		return 0, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return 0, err
	}
	if len(body) == 0 {
		return 0, fmt.Errorf("empty response body")
	}

	if resp.StatusCode != http.StatusOK {
		var dbg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &dbg)

		logger.Errorf("massive aggs API error status=%d message=%s", resp.StatusCode, dbg.Message)
		return 0, fmt.Errorf("massive returned status %d: %s", resp.StatusCode, dbg.Message)
	}

	var aggs massiveAggsResp
	if err := json.Unmarshal(body, &aggs); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if len(aggs.Results) == 0 {
		return 0, fmt.Errorf("no results for %s", ticker)
	}

	logger.Tracef("prev close %s = %.4f", ticker, aggs.Results[0].Close)
	return aggs.Results[0].Close, nil
}

// processGetRequest executes an HTTP GET request with rate-limit handling.
//
// Behavior:
//   - Retries indefinitely on HTTP 429
//   - Sleeps until the next minute boundary
//   - Any other status is returned to the caller for decoding
func (massiveDataProv *massiveDataProvider) processGetRequest(req *http.Request) (*http.Response, error) {
	for {
		resp, err := massiveDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		// Handle per-minute rate limit (commonly 429)
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()

			// Sleep until the next minute boundary
			now := time.Now()
			sleepDuration := time.Until(now.Truncate(time.Minute).Add(time.Minute))

			logger.Infof("rate limit hit, sleeping for %s", sleepDuration)
			time.Sleep(sleepDuration)
			continue
		}

		return resp, nil
	}
}
