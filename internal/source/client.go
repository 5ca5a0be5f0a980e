package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goccy/go-json"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

// TokenPayload is one outcome token in a source market object.
type TokenPayload struct {
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
	Winner  *bool   `json:"winner,omitempty"`
}

// MarketPayload is the raw market object returned by the source data API.
// Raw holds the exact response bytes for content hashing.
type MarketPayload struct {
	ConditionID    string         `json:"conditionId"`
	Question       string         `json:"question"`
	Closed         bool           `json:"closed"`
	EndDateISO     string         `json:"endDateIso"`
	WinningOutcome string         `json:"winningOutcome,omitempty"`
	Tokens         []TokenPayload `json:"tokens"`

	Raw []byte `json:"-"`
}

// Client is an HTTP client for the source data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new source API client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchMarket fetches one market by condition ID.
// 404 maps to types.ErrNotFound; any other non-2xx maps to types.SourceError.
func (c *Client) FetchMarket(ctx context.Context, conditionID common.Hash) (*MarketPayload, error) {
	requestURL := fmt.Sprintf("%s/markets/%s", c.baseURL, conditionID.Hex())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "parlay-resolver/1.0")

	c.logger.Debug("fetching-market",
		zap.String("url", requestURL),
		zap.String("condition-id", conditionID.Hex()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("market %s: %w", conditionID.Hex(), types.ErrNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &types.SourceError{Status: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var payload MarketPayload
	err = json.Unmarshal(body, &payload)
	if err != nil {
		return nil, fmt.Errorf("unmarshal market: %w", err)
	}

	payload.Raw = body
	if payload.ConditionID == "" {
		payload.ConditionID = conditionID.Hex()
	}

	c.logger.Debug("fetched-market",
		zap.String("condition-id", conditionID.Hex()),
		zap.Bool("closed", payload.Closed),
		zap.Int("tokens", len(payload.Tokens)))

	return &payload, nil
}
