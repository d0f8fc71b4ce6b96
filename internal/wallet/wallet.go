package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"sui-wallet-go/internal/config"
	"sui-wallet-go/internal/keystore"
	"sui-wallet-go/internal/logger"
	"sui-wallet-go/internal/signer"
	"sui-wallet-go/internal/sui"
	"sui-wallet-go/pkg/address"
	"sui-wallet-go/pkg/keypair"
	"sui-wallet-go/pkg/utils"
)

// Key sources reported in logs
const (
	SourceMnemonic = "mnemonic"
	SourceKeystore = "keystore"
)

var (
	// ErrNoKeySource is returned when neither a mnemonic nor a keystore is configured
	ErrNoKeySource = errors.New("no mnemonic or keystore configured")

	ErrInvalidDigest = errors.New("invalid transaction digest")
)

// Wallet represents a Sui account backed by one key pair
type Wallet struct {
	keyPair   *keypair.KeyPair
	signer    *signer.Signer
	rpcClient *sui.Client
	logger    *logger.Logger
	config    *config.Config
}

// NewWallet loads key material as cfg.Wallet describes. A configured mnemonic wins over the keystore.
func NewWallet(cfg *config.Config, rpcClient *sui.Client, log *logger.Logger, opts ...signer.Option) (*Wallet, error) {
	kp, source, err := LoadKeyPair(cfg.Wallet)
	if err != nil {
		return nil, err
	}

	w := &Wallet{
		keyPair:   kp,
		signer:    signer.New(kp, log, opts...),
		rpcClient: rpcClient,
		logger:    log,
		config:    cfg,
	}

	log.LogWalletLoaded(w.Address().String(), kp.Scheme().String(), source)
	log.WithFields(logrus.Fields{
		"network":         cfg.Network,
		"rpc":             rpcClient.Endpoint(),
		"derivation_path": cfg.Wallet.DerivationPath,
	}).Debug("Wallet initialized")

	return w, nil
}

// LoadKeyPair builds the key pair from the wallet config and reports where it came from
func LoadKeyPair(cfg config.WalletConfig) (*keypair.KeyPair, string, error) {
	if !cfg.HasKeySource() {
		return nil, "", ErrNoKeySource
	}

	switch {
	case cfg.Mnemonic != "":
		kp, err := keypair.FromMnemonic(cfg.Mnemonic, cfg.Passphrase, cfg.DerivationPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load key from mnemonic: %w", err)
		}
		return kp, SourceMnemonic, nil
	default:
		kp, err := keystore.Load(cfg.KeystorePath, cfg.KeystorePassword)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load key from keystore: %w", err)
		}
		return kp, SourceKeystore, nil
	}
}

// Address returns the wallet's Sui address
func (w *Wallet) Address() address.Address {
	return w.keyPair.Address()
}

// KeyPair returns the wallet's key pair
func (w *Wallet) KeyPair() *keypair.KeyPair {
	return w.keyPair
}

// Signer returns the signer bound to the wallet's key pair
func (w *Wallet) Signer() *signer.Signer {
	return w.signer
}

// Close wipes the private key
func (w *Wallet) Close() {
	w.keyPair.Destroy()
}

// GetBalance returns the wallet's balance of coinType in its smallest unit (MIST for SUI)
func (w *Wallet) GetBalance(ctx context.Context, coinType string) (*big.Int, error) {
	bal, err := w.rpcClient.GetBalance(ctx, w.Address().String(), coinType)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	total, err := utils.ParseMist(bal.TotalBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	w.logger.LogBalance(w.Address().String(), bal.CoinType, bal.TotalBalance)
	return total, nil
}

// GetBalanceSUI returns the SUI balance formatted with 9 decimals
func (w *Wallet) GetBalanceSUI(ctx context.Context) (string, error) {
	mist, err := w.GetBalance(ctx, sui.SuiCoinType)
	if err != nil {
		return "", err
	}
	return utils.FormatMist(mist), nil
}

// SignAndExecute builds a transaction, signs it and executes it on the configured node
func (w *Wallet) SignAndExecute(ctx context.Context, build signer.BuildFunc) (*sui.TransactionBlockResponse, error) {
	submit := w.rpcClient.Submitter(sui.DefaultResponseOptions, w.config.Wallet.RequestType)

	start := time.Now()
	result, err := w.signer.SignAndSubmit(ctx, build, submit)
	w.logger.LogLatency("sign_and_execute", time.Since(start))
	if err != nil {
		return nil, err
	}

	resp, ok := result.Response.(*sui.TransactionBlockResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected execute response %T", result.Response)
	}

	if resp.Digest != "" && !utils.IsValidTransactionDigest(resp.Digest) {
		return resp, fmt.Errorf("node returned malformed transaction digest %q", resp.Digest)
	}
	if resp.Digest != "" && resp.Digest != result.Digest {
		w.logger.WithComponent("wallet").WithFields(logrus.Fields{
			"local_digest": result.Digest,
			"node_digest":  resp.Digest,
		}).Warn("Node reported a different transaction digest")
	}
	if resp.Effects != nil && !resp.Succeeded() {
		return resp, fmt.Errorf("transaction %s failed: %s", resp.Digest, resp.Effects.Status.Error)
	}

	return resp, nil
}

// TransferSui sends amount MIST from coinID to recipient; zero sends the whole coin
func (w *Wallet) TransferSui(ctx context.Context, coinID, recipient string, amount uint64) (*sui.TransactionBlockResponse, error) {
	to, err := address.Parse(recipient)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	return w.SignAndExecute(ctx, sui.Builder(func(ctx context.Context) (*sui.TransactionBytes, error) {
		return w.rpcClient.TransferSui(ctx, w.Address().String(), coinID, w.config.Wallet.GasBudget, to.String(), amount)
	}))
}

// TransferObject sends objectID to recipient, letting the node pick gas when gasCoin is empty
func (w *Wallet) TransferObject(ctx context.Context, objectID, gasCoin, recipient string) (*sui.TransactionBlockResponse, error) {
	to, err := address.Parse(recipient)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	return w.SignAndExecute(ctx, sui.Builder(func(ctx context.Context) (*sui.TransactionBytes, error) {
		return w.rpcClient.TransferObject(ctx, w.Address().String(), objectID, gasCoin, w.config.Wallet.GasBudget, to.String())
	}))
}

// SplitCoin splits coinID into new coins of the given MIST amounts
func (w *Wallet) SplitCoin(ctx context.Context, coinID string, amounts []uint64) (*sui.TransactionBlockResponse, error) {
	if len(amounts) == 0 {
		return nil, fmt.Errorf("split needs at least one amount")
	}
	return w.SignAndExecute(ctx, sui.Builder(func(ctx context.Context) (*sui.TransactionBytes, error) {
		return w.rpcClient.SplitCoin(ctx, w.Address().String(), coinID, amounts, "", w.config.Wallet.GasBudget)
	}))
}

// MergeCoins merges coinToMerge into primaryCoin
func (w *Wallet) MergeCoins(ctx context.Context, primaryCoin, coinToMerge string) (*sui.TransactionBlockResponse, error) {
	return w.SignAndExecute(ctx, sui.Builder(func(ctx context.Context) (*sui.TransactionBytes, error) {
		return w.rpcClient.MergeCoins(ctx, w.Address().String(), primaryCoin, coinToMerge, "", w.config.Wallet.GasBudget)
	}))
}

// Pay sends amounts[i] MIST to recipients[i], paid from inputCoins
func (w *Wallet) Pay(ctx context.Context, inputCoins, recipients []string, amounts []uint64) (*sui.TransactionBlockResponse, error) {
	to := make([]string, len(recipients))
	for i, r := range recipients {
		addr, err := address.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %d: %w", i+1, err)
		}
		to[i] = addr.String()
	}

	req := sui.PayRequest{
		Signer:     w.Address().String(),
		InputCoins: inputCoins,
		Recipients: to,
		Amounts:    amounts,
		GasBudget:  w.config.Wallet.GasBudget,
	}
	return w.SignAndExecute(ctx, sui.Builder(func(ctx context.Context) (*sui.TransactionBytes, error) {
		return w.rpcClient.Pay(ctx, req)
	}))
}

// GetCoins lists every coin of coinType the wallet owns, following pagination
func (w *Wallet) GetCoins(ctx context.Context, coinType string) ([]sui.Coin, error) {
	var (
		coins  []sui.Coin
		cursor string
	)
	for {
		page, err := w.rpcClient.GetCoins(ctx, w.Address().String(), coinType, cursor, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to get coins: %w", err)
		}
		coins = append(coins, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil || *page.NextCursor == cursor {
			return coins, nil
		}
		cursor = *page.NextCursor
	}
}

// MoveCall executes a Move function as this wallet
func (w *Wallet) MoveCall(ctx context.Context, req sui.MoveCallRequest) (*sui.TransactionBlockResponse, error) {
	req.Signer = w.Address().String()
	if req.GasBudget == 0 {
		req.GasBudget = w.config.Wallet.GasBudget
	}

	return w.SignAndExecute(ctx, sui.Builder(func(ctx context.Context) (*sui.TransactionBytes, error) {
		return w.rpcClient.MoveCall(ctx, req)
	}))
}

// WaitForTransaction polls the node until digest is known or ctx is done
func (w *Wallet) WaitForTransaction(ctx context.Context, digest string, interval time.Duration) (*sui.TransactionBlockResponse, error) {
	if !utils.IsValidTransactionDigest(digest) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDigest, digest)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		resp, err := w.rpcClient.GetTransactionBlock(ctx, digest, sui.DefaultResponseOptions)
		if err == nil {
			return resp, nil
		}
		w.logger.WithTransaction(digest).WithError(err).Debug("Waiting for transaction...")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// WatchTransactions calls handler with the effects of every transaction this wallet sends
// until ctx is done, the connection drops or handler fails
func (w *Wallet) WatchTransactions(ctx context.Context, ws *sui.WSClient, handler func(effects json.RawMessage) error) error {
	sub, err := ws.SubscribeTransactions(ctx, map[string]string{"FromAddress": w.Address().String()})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer func() {
		unsubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ws.Unsubscribe(unsubCtx, sub); err != nil {
			w.logger.WithError(err).Debug("Unsubscribe failed")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case effects, ok := <-sub.Notifications:
			if !ok {
				return ws.Err()
			}
			if err := handler(effects); err != nil {
				return err
			}
		}
	}
}
