package ton

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/streamcanvas/backend/internal/models"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"go.uber.org/zap"
)

// WalletTransactor performs real transfers from the hot wallet.
type WalletTransactor struct {
	api         ton.APIClientWrapped
	wallet      *wallet.Wallet
	sendTimeout time.Duration
	log         *zap.Logger
}

func NewWalletTransactor(ctx context.Context, api ton.APIClientWrapped, seedPhrase string, sendTimeout time.Duration, log *zap.Logger) (*WalletTransactor, error) {
	seed := strings.Fields(seedPhrase)
	if len(seed) == 0 {
		return nil, fmt.Errorf("hot wallet seed phrase is empty")
	}

	w, err := wallet.FromSeed(api, seed, wallet.V4R2)
	if err != nil {
		return nil, fmt.Errorf("derive hot wallet from seed: %w", err)
	}

	log.Info("hot wallet ready", zap.String("address", w.WalletAddress().String()))
	return &WalletTransactor{api: api, wallet: w, sendTimeout: sendTimeout, log: log}, nil
}

func (t *WalletTransactor) Send(ctx context.Context, to string, amount, maxAcceptableFee float64) (*Receipt, error) {
	dst, err := address.ParseAddr(to)
	if err != nil {
		return nil, fmt.Errorf("invalid destination address %q: %w", to, err)
	}

	coins, err := tlb.FromTON(formatTON(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid transfer amount %v: %w", amount, err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.sendTimeout)
	defer cancel()

	msg, err := t.wallet.BuildTransfer(dst, coins, dst.IsBounceable(), "streamcanvas settlement")
	if err != nil {
		return nil, fmt.Errorf("build transfer: %w", err)
	}

	tx, _, err := t.wallet.SendWaitTransaction(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send transfer: %w", err)
	}

	actualFee := coinsToTON(tx.TotalFees.Coins)
	hash := hex.EncodeToString(tx.Hash)

	if maxAcceptableFee > 0 && actualFee > maxAcceptableFee {
		// The transfer is on chain at this point; the ceiling is meant
		// to be enforced pre-send via the estimator, so an overage here
		// is a reconciliation incident, not a silent truncation.
		t.log.Error("committed fee exceeds acceptable maximum",
			zap.String("tx_hash", hash),
			zap.Float64("actual_fee", actualFee),
			zap.Float64("max_acceptable_fee", maxAcceptableFee),
		)
		return nil, fmt.Errorf("tx %s fee %.9f: %w", hash, actualFee, models.ErrFeeTooHigh)
	}

	t.log.Info("transfer sent",
		zap.String("tx_hash", hash),
		zap.String("to", dst.String()),
		zap.Float64("amount", amount),
		zap.Float64("actual_fee", actualFee),
		zap.Bool("simulated", false),
	)

	return &Receipt{TxHash: hash, ActualFee: actualFee, Simulated: false}, nil
}

func (t *WalletTransactor) Balance(ctx context.Context) (float64, error) {
	block, err := t.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("get master block: %w", err)
	}
	balance, err := t.wallet.GetBalance(ctx, block)
	if err != nil {
		return 0, fmt.Errorf("get hot wallet balance: %w", err)
	}
	return coinsToTON(balance), nil
}

func coinsToTON(c tlb.Coins) float64 {
	f, _ := new(big.Float).SetInt(c.Nano()).Float64()
	return f / 1e9
}

// formatTON renders a TON amount with full nano precision and no
// scientific notation, the form tlb.FromTON expects.
func formatTON(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 9, 64)
}
