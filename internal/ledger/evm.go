// Package ledger bridges the trade service and the external escrow
// contract. Submissions return an external reference immediately; the
// contract is authoritative for fund movement, so payment records change
// only when a confirmation event comes back.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/zalmanollech/Tangent-Platform-sub001/config"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/shared"
)

const (
	// The escrow contract tracks amounts in its own fixed-point
	// representation with 6 fractional digits.
	escrowAmountDecimals = 6

	escrowGasLimit          = 150_000
	confirmationPollPeriod  = 15 * time.Second
	eventBufferSize         = 64
	platformKeyChildIndex   = 0
	submissionRetryBackoff  = 5 * time.Second
	receiptNotFoundTolerant = 2 // transient "not found" lookups allowed before counting a timeout
)

// Escrow contract method selectors, first 4 bytes of the keccak256 of
// the canonical signature.
var (
	createTradeSig     = crypto.Keccak256([]byte("createTrade(bytes32,uint256)"))[:4]
	depositSig         = crypto.Keccak256([]byte("deposit(bytes32,uint256)"))[:4]
	confirmDeliverySig = crypto.Keccak256([]byte("confirmDelivery(bytes32)"))[:4]
	releaseFundsSig    = crypto.Keccak256([]byte("releaseFunds(bytes32,uint256)"))[:4]
)

// EVMEscrowClient submits escrow operations to the contract and watches
// for their confirmation. One instance is shared by the whole process.
type EVMEscrowClient struct {
	logger *slog.Logger
	cfg    config.Ledger

	client   *ethclient.Client
	chainID  *big.Int
	privKey  *ecdsa.PrivateKey
	contract common.Address

	events     chan entities.ConfirmationEvent
	watchSlots chan struct{}

	mu          sync.Mutex
	submissions map[string]string // idempotency key -> external reference

	watchCtx context.Context
}

// TestnetRPCURL is used instead of the configured endpoint when ledger
// debug mode is on.
const TestnetRPCURL = "https://data-seed-prebsc-1-s1.binance.org:8545/"

func NewEVMEscrowClient(ctx context.Context, logger *slog.Logger, cfg config.Ledger) (*EVMEscrowClient, error) {
	privKey, err := derivePlatformKey(cfg.PlatformSeed)
	if err != nil {
		return nil, fmt.Errorf("derive platform key: %w", err)
	}

	if shared.IsLedgerDebugMode() {
		logger.InfoContext(ctx, "Ledger debug mode enabled, using testnet RPC", "rpc_url", TestnetRPCURL)
		cfg.RPCURL = TestnetRPCURL
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum client: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	logger.InfoContext(ctx, "Escrow ledger client connected",
		"rpc_url", cfg.RPCURL,
		"contract", cfg.EscrowContract,
		"signer", crypto.PubkeyToAddress(privKey.PublicKey).Hex(),
		"chain_id", chainID.String())

	return &EVMEscrowClient{
		logger:      logger,
		cfg:         cfg,
		client:      client,
		chainID:     chainID,
		privKey:     privKey,
		contract:    common.HexToAddress(cfg.EscrowContract),
		events:      make(chan entities.ConfirmationEvent, eventBufferSize),
		watchSlots:  make(chan struct{}, ports.MaxConcurrentChecks),
		submissions: make(map[string]string),
		watchCtx:    ctx,
	}, nil
}

var _ ports.EscrowClient = (*EVMEscrowClient)(nil)

// derivePlatformKey turns the configured mnemonic into the platform's
// escrow signing key.
func derivePlatformKey(mnemonic string) (*ecdsa.PrivateKey, error) {
	seed := bip39.NewSeed(mnemonic, "")

	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	childKey, err := masterKey.NewChildKey(platformKeyChildIndex)
	if err != nil {
		return nil, err
	}

	return crypto.ToECDSA(childKey.Key)
}

func (c *EVMEscrowClient) SubmitTradeCreation(ctx context.Context, tradeID string, totalValue decimal.Decimal, idempotencyKey string) (string, error) {
	data := buildCallData(createTradeSig, tradeKey(tradeID), amountToUnits(totalValue))
	return c.submit(ctx, data, idempotencyKey, "trade_creation")
}

func (c *EVMEscrowClient) SubmitDeposit(ctx context.Context, ledgerRef string, amount decimal.Decimal, idempotencyKey string) (string, error) {
	data := buildCallData(depositSig, refKey(ledgerRef), amountToUnits(amount))
	return c.submit(ctx, data, idempotencyKey, "deposit")
}

func (c *EVMEscrowClient) SubmitDeliveryConfirmation(ctx context.Context, ledgerRef string, idempotencyKey string) (string, error) {
	data := buildCallData(confirmDeliverySig, refKey(ledgerRef), nil)
	return c.submit(ctx, data, idempotencyKey, "delivery_confirmation")
}

func (c *EVMEscrowClient) SubmitFundRelease(ctx context.Context, ledgerRef string, amount decimal.Decimal, idempotencyKey string) (string, error) {
	data := buildCallData(releaseFundsSig, refKey(ledgerRef), amountToUnits(amount))
	return c.submit(ctx, data, idempotencyKey, "fund_release")
}

// submit sends the transaction and returns its hash as the external
// reference. A repeated idempotency key returns the reference of the
// first submission instead of sending again.
func (c *EVMEscrowClient) submit(ctx context.Context, data []byte, idempotencyKey, operation string) (string, error) {
	c.mu.Lock()
	if ref, ok := c.submissions[idempotencyKey]; ok {
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "Reusing previous submission for idempotency key",
			"operation", operation, "external_ref", ref)
		return ref, nil
	}
	c.mu.Unlock()

	signedTx, err := c.signTransaction(ctx, data)
	if err != nil {
		return "", err
	}

	// The signed transaction carries a fixed account nonce, so resending
	// it after a transient failure can never create a duplicate.
	var lastErr error
	for attempt := 1; attempt <= ports.MaxSubmissionAttempts; attempt++ {
		err = c.client.SendTransaction(ctx, signedTx)
		if err == nil {
			break
		}
		lastErr = err
		c.logger.ErrorContext(ctx, "Escrow submission attempt failed",
			"operation", operation, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ports.ErrLedgerTimeout, ctx.Err())
		case <-time.After(submissionRetryBackoff):
		}
	}
	if lastErr != nil && err != nil {
		return "", fmt.Errorf("%w: %s after %d attempts: %v",
			ports.ErrLedgerTimeout, operation, ports.MaxSubmissionAttempts, lastErr)
	}

	ref := signedTx.Hash().Hex()

	c.mu.Lock()
	c.submissions[idempotencyKey] = ref
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Escrow submission accepted",
		"operation", operation, "external_ref", ref)

	// Watcher slots are capped; when all are busy the recovery worker
	// picks the submission up from its pending state instead.
	select {
	case c.watchSlots <- struct{}{}:
		go func() {
			defer func() { <-c.watchSlots }()
			c.watchConfirmations(c.watchCtx, signedTx)
		}()
	default:
		c.logger.Warn("Confirmation watcher limit reached, deferring to recovery sweep",
			"external_ref", ref)
	}

	return ref, nil
}

func (c *EVMEscrowClient) signTransaction(ctx context.Context, data []byte) (*types.Transaction, error) {
	from := crypto.PubkeyToAddress(c.privKey.PublicKey)

	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, c.contract, big.NewInt(0), escrowGasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return signedTx, nil
}

// watchConfirmations polls for the receipt and emits a confirmation or
// revert event once the transaction has enough confirmations. When no
// receipt appears within the confirmation window the signed transaction
// is resent as is; the fixed nonce makes the resend idempotent.
func (c *EVMEscrowClient) watchConfirmations(ctx context.Context, signedTx *types.Transaction) {
	txHash := signedTx.Hash()
	startTime := time.Now()
	lastSend := startTime
	resends := 0
	notFound := 0

	ticker := time.NewTicker(confirmationPollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Confirmation watch cancelled",
				"tx_hash", txHash.Hex(), "duration", time.Since(startTime).String())
			return
		case <-ticker.C:
			receipt, err := c.client.TransactionReceipt(ctx, txHash)
			if err != nil {
				notFound++
				if notFound > receiptNotFoundTolerant {
					c.logger.Info("Waiting for escrow transaction receipt",
						"tx_hash", txHash.Hex(), "elapsed_time", time.Since(startTime).String())
				}

				if time.Since(lastSend) > ports.DefaultConfirmationTimeout && resends < ports.MaxSubmissionAttempts {
					resends++
					lastSend = time.Now()
					if sendErr := c.client.SendTransaction(ctx, signedTx); sendErr != nil {
						c.logger.ErrorContext(ctx, "Escrow transaction resend failed",
							"tx_hash", txHash.Hex(), "resend", resends, "error", sendErr)
					} else {
						c.logger.Info("Escrow transaction resent after confirmation timeout",
							"tx_hash", txHash.Hex(), "resend", resends)
					}
				}
				continue
			}

			if receipt.Status == types.ReceiptStatusFailed {
				c.emit(entities.ConfirmationEvent{
					ExternalRef: txHash.Hex(),
					Status:      entities.SubmissionReverted,
					Reason:      "execution reverted",
					BlockNumber: receipt.BlockNumber.Uint64(),
					Timestamp:   time.Now().UTC(),
				})
				return
			}

			currentBlock, err := c.client.BlockNumber(ctx)
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to get current block number",
					"error", err, "tx_hash", txHash.Hex())
				continue
			}

			confirmations := currentBlock - receipt.BlockNumber.Uint64()
			if confirmations < c.cfg.RequiredConfirmations {
				continue
			}

			c.emit(entities.ConfirmationEvent{
				ExternalRef: txHash.Hex(),
				Status:      entities.SubmissionConfirmed,
				BlockNumber: receipt.BlockNumber.Uint64(),
				Timestamp:   time.Now().UTC(),
			})
			c.logger.Info("Escrow transaction confirmed",
				"tx_hash", txHash.Hex(),
				"confirmations", confirmations,
				"duration", time.Since(startTime).String())
			return
		}
	}
}

func (c *EVMEscrowClient) emit(event entities.ConfirmationEvent) {
	select {
	case c.events <- event:
	default:
		// The consumer is behind; the recovery worker re-queries pending
		// submissions, so dropping here loses nothing permanently.
		c.logger.Warn("Confirmation event buffer full, dropping event",
			"external_ref", event.ExternalRef, "status", event.Status)
	}
}

// QueryState answers the ledger-side state of a submission, used by the
// recovery routine for payments left pending across a restart.
func (c *EVMEscrowClient) QueryState(ctx context.Context, externalRef string) (entities.SubmissionState, error) {
	txHash := common.HexToHash(externalRef)

	receipt, err := c.client.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return entities.SubmissionState{Status: entities.SubmissionPending, Details: "no receipt yet"}, nil
	}
	if err != nil {
		return entities.SubmissionState{}, fmt.Errorf("failed to get receipt: %w", err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return entities.SubmissionState{Status: entities.SubmissionReverted, Details: "execution reverted"}, nil
	}

	currentBlock, err := c.client.BlockNumber(ctx)
	if err != nil {
		return entities.SubmissionState{}, fmt.Errorf("failed to get current block number: %w", err)
	}

	confirmations := currentBlock - receipt.BlockNumber.Uint64()
	if confirmations < c.cfg.RequiredConfirmations {
		return entities.SubmissionState{
			Status:        entities.SubmissionPending,
			Details:       "awaiting confirmations",
			Confirmations: confirmations,
		}, nil
	}

	return entities.SubmissionState{Status: entities.SubmissionConfirmed, Confirmations: confirmations}, nil
}

func (c *EVMEscrowClient) Events() <-chan entities.ConfirmationEvent {
	return c.events
}

func (c *EVMEscrowClient) Close() {
	c.client.Close()
}

// tradeKey maps a trade id onto the contract's bytes32 trade key.
func tradeKey(tradeID string) []byte {
	return crypto.Keccak256([]byte(tradeID))
}

// refKey maps the stored ledger reference (the creation tx hash) onto a
// bytes32 argument.
func refKey(ledgerRef string) []byte {
	return common.HexToHash(ledgerRef).Bytes()
}

// amountToUnits converts a decimal amount to the contract's fixed-point
// integer units.
func amountToUnits(amount decimal.Decimal) *big.Int {
	return amount.Shift(escrowAmountDecimals).Truncate(0).BigInt()
}

// buildCallData packs selector + bytes32 key + optional uint256 amount.
func buildCallData(selector, key []byte, amount *big.Int) []byte {
	data := make([]byte, 0, 4+32+32)
	data = append(data, selector...)
	data = append(data, common.LeftPadBytes(key, 32)...)
	if amount != nil {
		data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	}
	return data
}
