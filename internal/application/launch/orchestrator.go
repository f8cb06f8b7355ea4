// internal/application/launch/orchestrator.go
package launch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	log "github.com/sirupsen/logrus"

	launchdom "launchpad/internal/domain/launch"
	"launchpad/internal/infra/logging"
	"launchpad/internal/infra/solana"
)

// ============================================================
// Orchestrator: 画像 → メタデータ → トランザクション の逐次パイプライン
// ============================================================

type Orchestrator struct {
	uploader Uploader
	chain    ChainClient
	cluster  string

	recorder Recorder
	notifier Notifier

	// NewMintAccount creates the mint keypair (tests inject a fixed one).
	NewMintAccount func() types.Account
	now            func() time.Time
}

func NewOrchestrator(uploader Uploader, chain ChainClient, cluster string) *Orchestrator {
	if cluster == "" {
		cluster = "devnet"
	}
	return &Orchestrator{
		uploader:       uploader,
		chain:          chain,
		cluster:        cluster,
		NewMintAccount: types.NewAccount,
		now:            time.Now,
	}
}

// SetRecorder / SetNotifier は任意依存（nil 可）。
func (o *Orchestrator) SetRecorder(r Recorder) { o.recorder = r }

func (o *Orchestrator) SetNotifier(n Notifier) { o.notifier = n }

func (o *Orchestrator) Cluster() string { return o.cluster }

// CreateToken uploads the image and metadata, then creates and funds the
// Token-2022 mint in one transaction signed by the wallet and the mint keypair.
func (o *Orchestrator) CreateToken(ctx context.Context, wallet Wallet, form launchdom.Form) (launchdom.Result, error) {
	if wallet == nil {
		return launchdom.Result{}, ErrWalletNotConnected
	}
	if err := form.Validate(); err != nil {
		return launchdom.Result{}, err
	}
	form = form.Normalized()
	payer := wallet.PublicKey()

	lg := log.WithFields(log.Fields{
		"wallet": logging.MaskShort(payer.ToBase58()),
		"symbol": form.Symbol,
	})

	// 1) image
	img, err := o.uploader.UploadFile(ctx, *form.Image)
	if err != nil || img.CID == "" {
		lg.WithError(err).Error("[mint] image upload FAILED")
		return launchdom.Result{}, fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	lg.WithField("cid", img.CID).Info("[mint] image uploaded")

	// 2) metadata JSON
	meta := launchdom.NewOffChainMetadata(form, img.URL, payer.ToBase58())
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return launchdom.Result{}, fmt.Errorf("marshal metadata: %w", err)
	}
	metaObj, err := o.uploader.UploadFile(ctx, launchdom.File{
		Name:        launchdom.MetadataFileName(o.now()),
		ContentType: "application/json",
		Data:        metaJSON,
	})
	if err != nil || metaObj.CID == "" {
		lg.WithError(err).Error("[mint] metadata upload FAILED")
		return launchdom.Result{}, fmt.Errorf("%w: %v", ErrMetadataUpload, err)
	}
	lg.WithField("cid", metaObj.CID).Info("[mint] metadata uploaded")

	// 3) sizes / rent
	mint := o.NewMintAccount()
	space, rentSize, err := solana.LaunchSizes(payer, mint.PublicKey, form.Name, form.Symbol, metaObj.URL)
	if err != nil {
		return launchdom.Result{}, fmt.Errorf("%w: %w", ErrTransaction, err)
	}
	lamports, err := o.chain.MinimumBalanceForRentExemption(ctx, rentSize)
	if err != nil {
		return launchdom.Result{}, fmt.Errorf("%w: %w", ErrTransaction, err)
	}

	// 4) instructions
	amount, err := form.BaseUnits()
	if err != nil {
		return launchdom.Result{}, err
	}
	ixs, _, err := solana.BuildMintInstructions(solana.MintParams{
		Payer:    payer,
		Mint:     mint.PublicKey,
		Decimals: launchdom.Decimals,
		Amount:   amount,
		Name:     form.Name,
		Symbol:   form.Symbol,
		URI:      metaObj.URL,
		Lamports: lamports,
		Space:    space,
	})
	if err != nil {
		return launchdom.Result{}, fmt.Errorf("%w: %w", ErrTransaction, err)
	}

	// 5) sign (mint keypair locally, wallet last) and send
	blockhash, err := o.chain.LatestBlockhash(ctx)
	if err != nil {
		return launchdom.Result{}, fmt.Errorf("%w: %w", ErrTransaction, err)
	}
	tx, err := solana.NewSignedTransaction(ctx, wallet, blockhash, ixs, mint)
	if err != nil {
		return launchdom.Result{}, err
	}
	sig, err := o.chain.SendTransaction(ctx, tx)
	if err != nil {
		return launchdom.Result{}, fmt.Errorf("%w: %w", ErrTransaction, err)
	}
	lg = lg.WithFields(log.Fields{
		"mint": logging.MaskShort(mint.PublicKey.ToBase58()),
		"sig":  logging.MaskShort(sig),
	})
	lg.Info("[mint] transaction submitted")

	// 6) confirm
	if err := o.chain.ConfirmTransaction(ctx, sig); err != nil {
		lg.WithError(err).Error("[mint] confirmation FAILED")
		return launchdom.Result{}, err
	}
	// 確定済みなので、ここでの失敗は警告にとどめる（RPC ノードの遅延がある）
	if err := o.chain.VerifyLaunch(ctx, mint.PublicKey.ToBase58(), sig); err != nil {
		lg.WithError(err).Warn("[mint] mint account not visible yet")
	}

	// 7) result
	res := launchdom.Result{
		MintAddress: mint.PublicKey.ToBase58(),
		Signature:   sig,
		MetadataURI: metaObj.URL,
		ImageURI:    img.URL,
		ExplorerURL: launchdom.ExplorerURL(mint.PublicKey.ToBase58(), o.cluster),
	}
	lg.Info("[mint] token created")

	o.afterLaunch(ctx, launchdom.NewRecord(res, form, payer.ToBase58(), o.cluster, o.now()))
	return res, nil
}

// afterLaunch runs the optional hooks; failures are logged only.
func (o *Orchestrator) afterLaunch(ctx context.Context, rec launchdom.Record) {
	if o.recorder != nil {
		if err := o.recorder.Record(ctx, rec); err != nil {
			log.WithError(err).WithField("mint", rec.Mint).Warn("[mint] record launch failed")
		}
	}
	if o.notifier != nil {
		if err := o.notifier.NotifyLaunch(ctx, rec); err != nil {
			log.WithError(err).WithField("mint", rec.Mint).Warn("[mint] receipt mail failed")
		}
	}
}
