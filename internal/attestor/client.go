package attestor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goccy/go-json"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

// ErrNotIndexed means the attestation service has not yet indexed the
// request (HTTP 404 on the status endpoint). The upstream service is
// eventually consistent, so this is "still pending", not a failure.
var ErrNotIndexed = errors.New("request not yet indexed")

// EncodedRequest is one record in the service's batched request schema.
type EncodedRequest struct {
	ConditionID string `json:"conditionId"`
	Payload     string `json:"payload"` // 0x-prefixed ABI-encoded record
}

// RequestAck is the service's acceptance of a batched request.
type RequestAck struct {
	RequestID   string `json:"requestId"`
	VotingRound uint64 `json:"votingRound,omitempty"`
}

// RoundStatus is the finalization state of an in-flight request.
type RoundStatus struct {
	Finalized   bool   `json:"finalized"`
	Failed      bool   `json:"failed,omitempty"`
	VotingRound uint64 `json:"votingRound,omitempty"`
}

// Client is an HTTP client for the attestation service REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new attestation service client.
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type attestationRequestBody struct {
	AttestationType string           `json:"attestationType"`
	SourceID        string           `json:"sourceId"`
	Requests        []EncodedRequest `json:"requests"`
}

// RequestAttestation POSTs a batched attestation request. Connection
// failures and non-success statuses wrap types.ErrServiceUnavailable:
// recoverable, retry later, never fabricate.
func (c *Client) RequestAttestation(ctx context.Context, requests []EncodedRequest) (*RequestAck, error) {
	body, err := json.Marshal(&attestationRequestBody{
		AttestationType: AttestationType,
		SourceID:        SourceID,
		Requests:        requests,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	requestURL := c.baseURL + "/requestAttestation"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	c.logger.Debug("requesting-attestation",
		zap.String("url", requestURL),
		zap.Int("records", len(requests)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request attestation: %v: %w", err, types.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request attestation: status %d: %s: %w",
			resp.StatusCode, string(respBody), types.ErrServiceUnavailable)
	}

	var ack RequestAck
	err = json.NewDecoder(resp.Body).Decode(&ack)
	if err != nil {
		return nil, fmt.Errorf("decode ack: %w", err)
	}

	if ack.RequestID == "" {
		return nil, fmt.Errorf("service returned empty request id: %w", types.ErrServiceUnavailable)
	}

	c.logger.Info("attestation-requested",
		zap.String("request-id", ack.RequestID),
		zap.Uint64("voting-round", ack.VotingRound),
		zap.Int("records", len(requests)))

	return &ack, nil
}

// FetchStatus polls the finalization state of a request. 404 maps to
// ErrNotIndexed and must be treated as still-pending by callers.
func (c *Client) FetchStatus(ctx context.Context, requestID string) (*RoundStatus, error) {
	requestURL := fmt.Sprintf("%s/da/status/%s", c.baseURL, requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("request %s: %w", requestID, ErrNotIndexed)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch status: status %d: %s", resp.StatusCode, string(respBody))
	}

	var status RoundStatus
	err = json.NewDecoder(resp.Body).Decode(&status)
	if err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}

	return &status, nil
}

type proofResponse struct {
	Proof           []string `json:"proof"`
	AttestationData string   `json:"attestationData"`
}

// FetchProof retrieves the proof bundle for one condition ID from the
// data-availability endpoint. Any failure wraps types.ErrProofUnavailable
// so the coordinator can apply its strict/permissive policy.
func (c *Client) FetchProof(ctx context.Context, conditionID common.Hash) (*types.ProofBundle, error) {
	bundle, err := c.fetchProof(ctx, conditionID)
	if err != nil {
		ProofErrorsTotal.Inc()
		return nil, err
	}
	ProofsFetchedTotal.Inc()
	return bundle, nil
}

func (c *Client) fetchProof(ctx context.Context, conditionID common.Hash) (*types.ProofBundle, error) {
	requestURL := fmt.Sprintf("%s/da/proof/%s", c.baseURL, conditionID.Hex())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch proof: %v: %w", err, types.ErrProofUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch proof: status %d: %s: %w",
			resp.StatusCode, string(respBody), types.ErrProofUnavailable)
	}

	var proofResp proofResponse
	err = json.NewDecoder(resp.Body).Decode(&proofResp)
	if err != nil {
		return nil, fmt.Errorf("decode proof: %v: %w", err, types.ErrProofUnavailable)
	}

	attestationData, err := hexutil.Decode(proofResp.AttestationData)
	if err != nil {
		return nil, fmt.Errorf("decode attestation data: %v: %w", err, types.ErrProofUnavailable)
	}

	merkleProof := make([]common.Hash, 0, len(proofResp.Proof))
	for _, h := range proofResp.Proof {
		merkleProof = append(merkleProof, common.HexToHash(h))
	}

	record, err := DecodeRecord(attestationData)
	if err != nil {
		return nil, fmt.Errorf("decode record: %v: %w", err, types.ErrProofUnavailable)
	}

	return &types.ProofBundle{
		ConditionID:     conditionID,
		AttestationData: attestationData,
		MerkleProof:     merkleProof,
		Outcome:         record.Outcome,
	}, nil
}
