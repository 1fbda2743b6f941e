// Package evm anchors proofs on an EVM chain by calling
// registerTourist(string,string,string) on the registry contract.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"tourguard/internal/itinerary/ports"
)

const registryABI = `[{
	"type": "function",
	"name": "registerTourist",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "touristId", "type": "string", "internalType": "string"},
		{"name": "name", "type": "string", "internalType": "string"},
		{"name": "tripHash", "type": "string", "internalType": "string"}
	],
	"outputs": []
}]`

const registerMethod = "registerTourist"

// Client is the subset of ethclient.Client the adapter uses.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

type Config struct {
	RPCURL          string
	PrivateKey      string
	ContractAddress string
	// ChainID 0 asks the node.
	ChainID int64
}

type Ledger struct {
	client   Client
	key      *ecdsa.PrivateKey
	from     common.Address
	contract common.Address
	abi      abi.ABI
	signer   types.Signer
	closer   func()
}

// Dial connects to cfg.RPCURL.
func Dial(ctx context.Context, cfg Config) (*Ledger, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger rpc: %w", err)
	}
	l, err := New(ctx, client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	l.closer = client.Close
	return l, nil
}

func New(ctx context.Context, client Client, cfg Config) (*Ledger, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse ledger private key: %w", err)
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("query chain id: %w", err)
		}
	}

	return &Ledger{
		client:   client,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		contract: common.HexToAddress(cfg.ContractAddress),
		abi:      parsed,
		signer:   types.NewEIP155Signer(chainID),
	}, nil
}

func (l *Ledger) Account() string {
	return l.from.Hex()
}

func (l *Ledger) Close() {
	if l.closer != nil {
		l.closer()
	}
}

func (l *Ledger) EstimateFee(ctx context.Context, payload ports.Payload, from string) (uint64, error) {
	data, err := l.pack(payload)
	if err != nil {
		return 0, err
	}
	msg := ethereum.CallMsg{
		From: common.HexToAddress(from),
		To:   &l.contract,
		Data: data,
	}
	gas, err := l.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, classify("estimate", err)
	}
	return gas, nil
}

func (l *Ledger) FeeRate(ctx context.Context) (*big.Int, error) {
	price, err := l.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, classify("fee_rate", err)
	}
	return price, nil
}

func (l *Ledger) SequenceNumber(ctx context.Context, account string) (uint64, error) {
	if !common.IsHexAddress(account) {
		return 0, ports.NewLedgerError(ports.ErrorInternal, "sequence", "invalid account "+account, nil)
	}
	nonce, err := l.client.PendingNonceAt(ctx, common.HexToAddress(account))
	if err != nil {
		return 0, classify("sequence", err)
	}
	return nonce, nil
}

// Submit signs a legacy transaction with the configured key and sends it.
func (l *Ledger) Submit(ctx context.Context, sub ports.Submission) (string, error) {
	data, err := l.pack(sub.Payload)
	if err != nil {
		return "", err
	}

	var nonce uint64
	if sub.Nonce != nil {
		nonce = *sub.Nonce
	} else if nonce, err = l.client.PendingNonceAt(ctx, l.from); err != nil {
		return "", classify("submit", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &l.contract,
		Value:    new(big.Int),
		Gas:      sub.FeeUnits,
		GasPrice: sub.FeeRate,
		Data:     data,
	})
	signed, err := types.SignTx(tx, l.signer, l.key)
	if err != nil {
		return "", ports.NewLedgerError(ports.ErrorInternal, "submit", "sign transaction", err)
	}
	if err := l.client.SendTransaction(ctx, signed); err != nil {
		return "", classify("submit", err)
	}
	return signed.Hash().Hex(), nil
}

func (l *Ledger) pack(p ports.Payload) ([]byte, error) {
	data, err := l.abi.Pack(registerMethod, p.SubjectID, p.DisplayName, p.ProofValue)
	if err != nil {
		return nil, ports.NewLedgerError(ports.ErrorInternal, "pack", "encode registerTourist call", err)
	}
	return data, nil
}

var rejectionMarkers = []string{
	"execution reverted",
	"nonce too low",
	"nonce too high",
	"replacement transaction underpriced",
	"transaction underpriced",
	"insufficient funds",
	"intrinsic gas too low",
	"gas limit reached",
	"already known",
}

// classify maps node and transport failures onto the ledger error taxonomy.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ports.NewLedgerError(ports.ErrorTimeout, op, "deadline exceeded", err)
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return ports.NewLedgerError(ports.ErrorRateLimited, op, "rate limited", err)
		case httpErr.StatusCode >= 500:
			return ports.NewLedgerError(ports.ErrorOutage, op, "node unavailable", err)
		default:
			return ports.NewLedgerError(ports.ErrorRejected, op, httpErr.Status, err)
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rejectionMarkers {
		if strings.Contains(msg, marker) {
			return ports.NewLedgerError(ports.ErrorRejected, op, marker, err)
		}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return ports.NewLedgerError(ports.ErrorRejected, op, fmt.Sprintf("rpc error %d", rpcErr.ErrorCode()), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ports.NewLedgerError(ports.ErrorTimeout, op, "network timeout", err)
		}
		return ports.NewLedgerError(ports.ErrorOutage, op, "network error", err)
	}
	return ports.NewLedgerError(ports.ErrorOutage, op, "ledger call failed", err)
}
