package oracle

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

const oracleABI = `[{
	"inputs": [
		{"name": "conditionId", "type": "bytes32"},
		{"name": "outcome", "type": "uint8"},
		{"name": "attestationData", "type": "bytes"},
		{"name": "merkleProof", "type": "bytes32[]"}
	],
	"name": "submitOutcome",
	"outputs": [],
	"stateMutability": "nonpayable",
	"type": "function"
}, {
	"inputs": [
		{"name": "conditionId", "type": "bytes32"}
	],
	"name": "getOutcome",
	"outputs": [
		{"name": "resolved", "type": "bool"},
		{"name": "outcome", "type": "uint8"}
	],
	"stateMutability": "view",
	"type": "function"
}]`

// Client submits attested outcomes to the parlay oracle contract.
type Client struct {
	eth        *ethclient.Client
	privateKey *ecdsa.PrivateKey
	sender     common.Address
	oracle     common.Address
	chainID    *big.Int
	gasLimit   uint64
	contract   abi.ABI
	logger     *zap.Logger
}

// ClientConfig holds oracle client configuration.
type ClientConfig struct {
	RPCURL        string
	PrivateKeyHex string
	OracleAddress string
	ChainID       int64
	GasLimit      uint64
	Logger        *zap.Logger
}

// NewClient dials the RPC endpoint and prepares the signing identity.
// An empty private key yields a read-only client: GetOutcome works,
// SubmitOutcome errors.
func NewClient(ctx context.Context, cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RPCURL == "" {
		return nil, errors.New("rpc url cannot be empty")
	}
	if cfg.OracleAddress == "" {
		return nil, errors.New("oracle address cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	var (
		privateKey *ecdsa.PrivateKey
		sender     common.Address
		err        error
	)
	if cfg.PrivateKeyHex != "" {
		privateKey, err = crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}

		publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
		if !ok {
			return nil, errors.New("error casting public key to ECDSA")
		}
		sender = crypto.PubkeyToAddress(*publicKey)
	}

	contract, err := abi.JSON(strings.NewReader(oracleABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}

	return &Client{
		eth:        eth,
		privateKey: privateKey,
		sender:     sender,
		oracle:     common.HexToAddress(cfg.OracleAddress),
		chainID:    big.NewInt(cfg.ChainID),
		gasLimit:   cfg.GasLimit,
		contract:   contract,
		logger:     cfg.Logger,
	}, nil
}

// Sender returns the submitting account address.
func (c *Client) Sender() common.Address {
	return c.sender
}

// Close releases the RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// SubmitOutcome sends a submitOutcome transaction and waits for it to
// mine. Returns the transaction hash on success. A reverted receipt is
// an error carrying the tx hash so operators can inspect it.
func (c *Client) SubmitOutcome(ctx context.Context, bundle *types.ProofBundle) (string, error) {
	if c.privateKey == nil {
		return "", errors.New("client has no signing key")
	}

	proof := make([][32]byte, 0, len(bundle.MerkleProof))
	for _, h := range bundle.MerkleProof {
		proof = append(proof, [32]byte(h))
	}

	data, err := c.contract.Pack("submitOutcome",
		[32]byte(bundle.ConditionID),
		uint8(bundle.Outcome),
		bundle.AttestationData,
		proof)
	if err != nil {
		return "", fmt.Errorf("pack call data: %w", err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.sender)
	if err != nil {
		return "", fmt.Errorf("get nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}

	tx := ethtypes.NewTransaction(
		nonce,
		c.oracle,
		big.NewInt(0),
		c.gasLimit,
		gasPrice,
		data,
	)

	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(c.chainID), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}

	start := time.Now()
	err = c.eth.SendTransaction(ctx, signedTx)
	if err != nil {
		return "", fmt.Errorf("send tx: %w", err)
	}

	c.logger.Info("submission-tx-sent",
		zap.String("condition-id", bundle.ConditionID.Hex()),
		zap.String("tx-hash", signedTx.Hash().Hex()))

	receipt, err := bind.WaitMined(ctx, c.eth, signedTx)
	if err != nil {
		return "", fmt.Errorf("wait for tx: %w", err)
	}

	ConfirmationDurationSeconds.Observe(time.Since(start).Seconds())

	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return "", fmt.Errorf("transaction %s reverted", receipt.TxHash.Hex())
	}

	c.logger.Info("submission-confirmed",
		zap.String("condition-id", bundle.ConditionID.Hex()),
		zap.String("tx-hash", receipt.TxHash.Hex()),
		zap.Uint64("gas-used", receipt.GasUsed))

	return receipt.TxHash.Hex(), nil
}

// GetOutcome reads the oracle's stored outcome for a condition ID.
// resolved=false means the oracle has not seen this condition yet.
func (c *Client) GetOutcome(ctx context.Context, conditionID common.Hash) (types.Outcome, bool, error) {
	data, err := c.contract.Pack("getOutcome", [32]byte(conditionID))
	if err != nil {
		return types.OutcomeInvalid, false, fmt.Errorf("pack call data: %w", err)
	}

	result, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &c.oracle,
		Data: data,
	}, nil)
	if err != nil {
		return types.OutcomeInvalid, false, fmt.Errorf("call getOutcome: %w", err)
	}

	values, err := c.contract.Unpack("getOutcome", result)
	if err != nil {
		return types.OutcomeInvalid, false, fmt.Errorf("unpack result: %w", err)
	}

	resolved, ok := values[0].(bool)
	if !ok {
		return types.OutcomeInvalid, false, fmt.Errorf("unexpected resolved type %T", values[0])
	}
	outcome, ok := values[1].(uint8)
	if !ok {
		return types.OutcomeInvalid, false, fmt.Errorf("unexpected outcome type %T", values[1])
	}

	return types.Outcome(outcome), resolved, nil
}
