// internal/infra/solana/chain_client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/types"
	log "github.com/sirupsen/logrus"

	"launchpad/internal/infra/logging"
)

var (
	ErrChainNotConfigured  = errors.New("solana: chain client not configured")
	ErrConfirmTimeout      = errors.New("solana: transaction was not confirmed in time")
	ErrTransactionFailed   = errors.New("solana: transaction failed")
	ErrSignatureNotFound   = errors.New("solana: signature not found")
	ErrMintNotFound        = errors.New("solana: mint account not found")
	ErrNotToken2022Account = errors.New("solana: account is not owned by token-2022")
)

const (
	defaultCommitment     = "confirmed"
	defaultConfirmTimeout = 90 * time.Second
	defaultPollInterval   = 2 * time.Second
)

var commitmentRank = map[string]int{
	"processed": 1,
	"confirmed": 2,
	"finalized": 3,
}

// ChainClient は blocto の client（送信・rent・blockhash）と
// JSON-RPC（確認ポーリング・アカウント検証）をまとめたものです。
type ChainClient struct {
	RPC  *client.Client
	JSON *JSONRPCClient

	Commitment     string
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// NewChainClient constructs a client against rpcURL (devnet when empty).
func NewChainClient(rpcURL string) *ChainClient {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = DevnetEndpoint
	}
	return &ChainClient{
		RPC:            client.NewClient(u),
		JSON:           NewJSONRPCClient(u),
		Commitment:     defaultCommitment,
		ConfirmTimeout: defaultConfirmTimeout,
		PollInterval:   defaultPollInterval,
	}
}

func (c *ChainClient) MinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	if c == nil || c.RPC == nil {
		return 0, ErrChainNotConfigured
	}
	v, err := c.RPC.GetMinimumBalanceForRentExemption(ctx, size)
	if err != nil {
		return 0, fmt.Errorf("GetMinimumBalanceForRentExemption: %w", err)
	}
	return v, nil
}

func (c *ChainClient) LatestBlockhash(ctx context.Context) (string, error) {
	if c == nil || c.RPC == nil {
		return "", ErrChainNotConfigured
	}
	recent, err := c.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("GetLatestBlockhash: %w", err)
	}
	return recent.Blockhash, nil
}

func (c *ChainClient) SendTransaction(ctx context.Context, tx types.Transaction) (string, error) {
	if c == nil || c.RPC == nil {
		return "", ErrChainNotConfigured
	}
	sig, err := c.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("SendTransaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls until sig reaches the configured commitment,
// fails on chain, or ConfirmTimeout elapses.
func (c *ChainClient) ConfirmTransaction(ctx context.Context, sig string) error {
	if c == nil || c.JSON == nil {
		return ErrChainNotConfigured
	}

	timeout := c.ConfirmTimeout
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}
	interval := c.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := c.JSON.GetSignatureStatus(ctx, sig)
		if err != nil && ctx.Err() == nil {
			// 一時的な RPC エラーは次のポーリングで再確認する
			log.WithError(err).WithField("sig", logging.MaskShort(sig)).Warn("[solana] status poll failed")
		}
		if st != nil {
			if st.Failed() {
				return fmt.Errorf("%w: %s", ErrTransactionFailed, strings.TrimSpace(string(st.Err)))
			}
			if c.reached(st.ConfirmationStatus) {
				log.WithFields(log.Fields{
					"sig":    logging.MaskShort(sig),
					"status": st.ConfirmationStatus,
					"slot":   st.Slot,
				}).Info("[solana] transaction confirmed")
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrConfirmTimeout, sig)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *ChainClient) reached(status string) bool {
	want := commitmentRank[c.Commitment]
	if want == 0 {
		want = commitmentRank[defaultCommitment]
	}
	return commitmentRank[status] >= want
}

// VerifyLaunch checks that sig landed without error and that mint exists as a Token-2022 account.
func (c *ChainClient) VerifyLaunch(ctx context.Context, mint, sig string) error {
	if c == nil || c.JSON == nil {
		return ErrChainNotConfigured
	}

	st, err := c.JSON.GetSignatureStatus(ctx, sig)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrSignatureNotFound
	}
	if st.Failed() {
		return fmt.Errorf("%w: %s", ErrTransactionFailed, strings.TrimSpace(string(st.Err)))
	}
	if !c.reached(st.ConfirmationStatus) {
		return fmt.Errorf("%w: status=%s", ErrSignatureNotFound, st.ConfirmationStatus)
	}

	acc, err := c.JSON.GetAccountInfo(ctx, mint, c.Commitment)
	if err != nil {
		return err
	}
	if acc == nil {
		return ErrMintNotFound
	}
	if acc.Owner != Token2022ProgramID.ToBase58() {
		return fmt.Errorf("%w: owner=%s", ErrNotToken2022Account, acc.Owner)
	}
	return nil
}
