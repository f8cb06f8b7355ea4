// internal/platform/di/client_container.go
package di

import (
	"context"
	"fmt"
	"strings"

	gcsstorage "cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"launchpad/internal/adapters/out/gcs"
	httpout "launchpad/internal/adapters/out/http"
	"launchpad/internal/adapters/out/mail"
	launchapp "launchpad/internal/application/launch"
	"launchpad/internal/infra/config"
	"launchpad/internal/infra/logging"
	"launchpad/internal/infra/secrets"
	"launchpad/internal/infra/solana"
	"launchpad/internal/infra/storage"
)

// ClientOptions are the per-run inputs that do not come from the environment.
type ClientOptions struct {
	// Approver is asked before the wallet signs (nil approves everything).
	Approver solana.Approver
	// NotifyEmail enables the receipt mail when SENDGRID_API_KEY is set.
	NotifyEmail string
}

// ClientContainer は cmd/launchpad の依存をまとめたものです。
type ClientContainer struct {
	Config *config.ClientConfig

	Wallet       *solana.KeypairWallet
	Storage      *storage.Client // gcs backend のときは nil
	Uploader     launchapp.Uploader
	Chain        *solana.ChainClient
	Orchestrator *launchapp.Orchestrator
	Session      *launchapp.Session

	closers []func() error
}

func NewClientContainer(ctx context.Context, cfg *config.ClientConfig, opts ClientOptions) (*ClientContainer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("di: client config is nil")
	}
	c := &ClientContainer{Config: cfg}

	// 1. wallet
	wallet, err := c.loadWallet(ctx, opts.Approver)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Wallet = wallet
	log.WithField("wallet", logging.MaskShort(wallet.PublicKey().ToBase58())).Info("[boot] wallet loaded")

	// 2. storage backend
	if err := c.buildUploader(ctx); err != nil {
		c.Close()
		return nil, err
	}

	// 3. chain
	chain := solana.NewChainClient(cfg.SolanaRPCURL)
	if cm := strings.TrimSpace(cfg.Commitment); cm != "" {
		chain.Commitment = cm
	}
	if cfg.ConfirmWait > 0 {
		chain.ConfirmTimeout = cfg.ConfirmWait
	}
	c.Chain = chain

	// 4. orchestrator + optional hooks
	orch := launchapp.NewOrchestrator(c.Uploader, chain, cfg.Cluster)
	if cfg.RecordLaunches && strings.TrimSpace(cfg.APIURL) != "" {
		orch.SetRecorder(httpout.NewLaunchRecordClient(cfg.APIURL, cfg.AuthToken))
	}
	if m := mail.NewLaunchReceiptMailerWithSendGrid(cfg.SendGridAPIKey, cfg.MailFrom, opts.NotifyEmail); m != nil {
		orch.SetNotifier(m)
	}
	c.Orchestrator = orch

	c.Session = launchapp.NewSession(orch, c.Uploader)
	c.Session.ConnectWallet(wallet)
	return c, nil
}

func (c *ClientContainer) loadWallet(ctx context.Context, approve solana.Approver) (*solana.KeypairWallet, error) {
	cfg := c.Config
	if name := strings.TrimSpace(cfg.WalletKeypairSecret); name != "" {
		sm := secrets.NewSecretManager(cfg.GCPCreds)
		c.closers = append(c.closers, sm.Close)
		acc, err := solana.LoadKeypairSecret(ctx, sm, name)
		if err != nil {
			return nil, err
		}
		return solana.NewKeypairWallet(acc, approve), nil
	}

	acc, err := solana.LoadKeypairFile(cfg.WalletKeypair)
	if err != nil {
		return nil, err
	}
	return solana.NewKeypairWallet(acc, approve), nil
}

func (c *ClientContainer) buildUploader(ctx context.Context) error {
	cfg := c.Config

	switch cfg.StorageBackend {
	case "gcs":
		var opts []option.ClientOption
		if f := strings.TrimSpace(cfg.GCPCreds); f != "" {
			opts = append(opts, option.WithCredentialsFile(f))
		}
		client, err := gcsstorage.NewClient(ctx, opts...)
		if err != nil {
			return fmt.Errorf("gcs client: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		c.Uploader = gcs.NewContentUploader(client, cfg.GCSBucket, cfg.GCSPrefix)
		log.WithField("bucket", cfg.GCSBucket).Info("[boot] storage backend: gcs")
		return nil

	case "email":
		gw := storage.NewGateway(cfg.StorageGatewayURL)
		return c.setStorage(gw, storage.NewEmailLoginSource(gw, cfg.StorageEmail, cfg.StorageServiceDID))

	default:
		gw := storage.NewGateway(cfg.StorageGatewayURL)
		return c.setStorage(gw, storage.NewDelegationSource(cfg.APIURL))
	}
}

func (c *ClientContainer) setStorage(gw *storage.Gateway, src storage.SpaceSource) error {
	client, err := storage.NewClient(storage.ClientParams{
		Source:      src,
		Gateway:     gw,
		ServiceDID:  c.Config.StorageServiceDID,
		URLTemplate: c.Config.GatewayURLTemplate,
	})
	if err != nil {
		return err
	}
	c.Storage = client
	c.Uploader = client
	log.WithFields(log.Fields{
		"backend": c.Config.StorageBackend,
		"agent":   logging.MaskShort(client.Agent().DID()),
	}).Info("[boot] storage backend ready for init")
	return nil
}

// InitStorage runs the one-time space acquisition (no-op for gcs).
func (c *ClientContainer) InitStorage(ctx context.Context) error {
	if c.Storage == nil {
		return nil
	}
	return c.Storage.Init(ctx)
}

func (c *ClientContainer) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			log.WithError(err).Warn("[boot] close failed")
		}
	}
	c.closers = nil
}
