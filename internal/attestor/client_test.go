package attestor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRequestAttestationSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/requestAttestation", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))

		var body attestationRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, AttestationType, body.AttestationType)
		assert.Equal(t, SourceID, body.SourceID)
		assert.Len(t, body.Requests, 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"requestId":"req-1","votingRound":812345}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", zaptest.NewLogger(t))

	ack, err := client.RequestAttestation(context.Background(), []EncodedRequest{
		{ConditionID: "0xaa", Payload: "0x01"},
		{ConditionID: "0xbb", Payload: "0x02"},
	})
	require.NoError(t, err)

	assert.Equal(t, "req-1", ack.RequestID)
	assert.Equal(t, uint64(812345), ack.VotingRound)
}

func TestRequestAttestationServiceDown(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", zaptest.NewLogger(t))

	_, err := client.RequestAttestation(context.Background(), []EncodedRequest{
		{ConditionID: "0xaa", Payload: "0x01"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrServiceUnavailable))
}

func TestRequestAttestationConnectionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "secret", zaptest.NewLogger(t))

	_, err := client.RequestAttestation(context.Background(), []EncodedRequest{
		{ConditionID: "0xaa", Payload: "0x01"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrServiceUnavailable))
}

func TestRequestAttestationEmptyRequestID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"requestId":""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", zaptest.NewLogger(t))

	_, err := client.RequestAttestation(context.Background(), []EncodedRequest{
		{ConditionID: "0xaa", Payload: "0x01"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrServiceUnavailable))
}

func TestFetchStatusNotIndexed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", zaptest.NewLogger(t))

	_, err := client.FetchStatus(context.Background(), "req-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotIndexed))
}

func TestFetchStatusFinalized(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/da/status/req-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"finalized":true,"votingRound":812345}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", zaptest.NewLogger(t))

	status, err := client.FetchStatus(context.Background(), "req-1")
	require.NoError(t, err)

	assert.True(t, status.Finalized)
	assert.False(t, status.Failed)
	assert.Equal(t, uint64(812345), status.VotingRound)
}

func TestFetchProofSuccess(t *testing.T) {
	t.Parallel()

	conditionID := common.HexToHash("0xaa")
	record := &types.OutcomeRecord{
		ConditionID:    conditionID,
		Closed:         true,
		Outcome:        types.OutcomeYes,
		ResolvedAt:     1768478400,
		SourceDataHash: common.HexToHash("0xbb"),
	}
	attestationData, err := EncodeRecord(record)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/da/proof/"+conditionID.Hex(), r.URL.Path)

		resp := proofResponse{
			Proof:           []string{"0x11", "0x22"},
			AttestationData: hexutil.Encode(attestationData),
		}
		require.NoError(t, json.NewEncoder(w).Encode(&resp))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", zaptest.NewLogger(t))

	bundle, err := client.FetchProof(context.Background(), conditionID)
	require.NoError(t, err)

	assert.Equal(t, conditionID, bundle.ConditionID)
	assert.Equal(t, attestationData, bundle.AttestationData)
	assert.Equal(t, types.OutcomeYes, bundle.Outcome)
	require.Len(t, bundle.MerkleProof, 2)
	assert.Equal(t, common.HexToHash("0x11"), bundle.MerkleProof[0])
}

func TestFetchProofUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed attestation data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"proof":[],"attestationData":"not-hex"}`))
			},
		},
		{
			name: "undecodable record",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"proof":[],"attestationData":"0x0102"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL, "secret", zaptest.NewLogger(t))

			_, err := client.FetchProof(context.Background(), common.HexToHash("0xaa"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrProofUnavailable))
		})
	}
}
