package service

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"crowdfunding-ledger-backend/internal/common/logger"
	"crowdfunding-ledger-backend/internal/features/custody/models"
	"crowdfunding-ledger-backend/internal/features/custody/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// Gas for a plain value transfer to an externally owned account.
const transferGasLimit = 21000

// EthBackend is the subset of ethclient.Client the payout signer needs.
type EthBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// EthTransferer pays campaign owners from the escrow wallet with signed
// value transfers.
type EthTransferer struct {
	backend EthBackend
	key     *ecdsa.PrivateKey
	from    common.Address
	signer  types.Signer
	repo    repository.PayoutRepository
	now     func() time.Time

	// Nonce lookup and send must not interleave between payouts.
	mu sync.Mutex
}

func NewEthTransferer(backend EthBackend, privateKeyHex string, chainID int64, repo repository.PayoutRepository) (*EthTransferer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &EthTransferer{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		signer:  types.NewEIP155Signer(big.NewInt(chainID)),
		repo:    repo,
		now:     time.Now,
	}, nil
}

// From returns the escrow wallet address.
func (t *EthTransferer) From() string {
	return t.from.Hex()
}

func (t *EthTransferer) Transfer(ctx context.Context, req TransferRequest) (*models.Payout, error) {
	if !common.IsHexAddress(req.To) {
		return nil, fmt.Errorf("invalid recipient %q", req.To)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	nonce, err := t.backend.PendingNonceAt(ctx, t.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := t.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, common.HexToAddress(req.To), req.Amount.BigInt(), transferGasLimit, gasPrice, nil)
	signed, err := types.SignTx(tx, t.signer, t.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	payout := &models.Payout{
		ID:         uuid.New().String(),
		Account:    req.To,
		CampaignID: req.CampaignID,
		Amount:     req.Amount,
		Driver:     models.DriverEthereum,
		Reference:  signed.Hash().Hex(),
		CreatedAt:  t.now().UTC(),
	}

	// The transfer is already broadcast, a bookkeeping failure must not
	// report it as failed.
	if err := t.repo.Record(ctx, payout); err != nil {
		logger.Error().
			Err(err).
			Str("tx_hash", payout.Reference).
			Uint64("campaign_id", req.CampaignID).
			Msg("Failed to record on-chain payout")
	}

	logger.Info().
		Str("tx_hash", payout.Reference).
		Str("to", req.To).
		Str("amount", req.Amount.String()).
		Uint64("nonce", nonce).
		Msg("Payout transaction sent")
	return payout, nil
}
