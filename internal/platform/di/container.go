// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	httpin "launchpad/internal/adapters/in/http"
	"launchpad/internal/adapters/in/http/middleware"
	pgrepo "launchpad/internal/adapters/out/db"
	fsrepo "launchpad/internal/adapters/out/firestore"
	"launchpad/internal/adapters/out/memory"
	delegationapp "launchpad/internal/application/delegation"
	usecase "launchpad/internal/application/usecase"
	launchdom "launchpad/internal/domain/launch"
	"launchpad/internal/infra/config"
	"launchpad/internal/infra/database"
	firestoreinfra "launchpad/internal/infra/firestore"
	"launchpad/internal/infra/secrets"
	"launchpad/internal/infra/solana"
)

// Container は cmd/api から使う依存オブジェクトの束。
// main.go を極限まで薄くするのが目的です。
type Container struct {
	Config *config.Config

	DelegationUC *delegationapp.Usecase
	LaunchUC     *usecase.LaunchRecordUsecase
	UserAuth     *middleware.UserAuthMiddleware

	closers []func() error
}

// NewContainer wires the service. A missing or invalid delegation authority is
// not an error: the endpoint then answers 503.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("di: config is nil")
	}
	c := &Container{Config: cfg}

	// ------------------------------------------------------------
	// 1. Secrets → delegation authority
	// ------------------------------------------------------------
	var sm *secrets.SecretManager
	if cfg.AgentPrivateKeySecret != "" || cfg.DelegationProofSecret != "" {
		sm = secrets.NewSecretManager(cfg.CredentialsFile())
		c.closers = append(c.closers, sm.Close)
	}

	authority, err := loadAuthority(ctx, cfg, sm)
	c.DelegationUC = delegationapp.NewUsecase(authority, cfg.DelegationTTL)
	switch {
	case err != nil:
		log.WithError(err).Error("[boot] delegation authority is invalid; /api/w3up-delegation will answer 503")
	case authority == nil:
		log.Warn("[boot] AGENT_PRIVATE_KEY / DELEGATION_PROOF not set; /api/w3up-delegation will answer 503")
	default:
		log.WithField("space", authority.Space()).Info("[boot] delegation authority loaded")
	}

	// ------------------------------------------------------------
	// 2. Launch records repository: Firestore → Postgres → memory
	// ------------------------------------------------------------
	repo, err := c.buildLaunchRepository(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	var verifier usecase.LaunchVerifier
	if cfg.VerifyLaunches {
		verifier = solana.NewChainClient(cfg.SolanaRPCURL)
	}
	c.LaunchUC = usecase.NewLaunchRecordUsecase(repo, verifier, cfg.Cluster)

	// ------------------------------------------------------------
	// 3. Firebase Auth (optional)
	// ------------------------------------------------------------
	if cfg.RequireAuth {
		var opts []option.ClientOption
		if f := cfg.CredentialsFile(); f != "" {
			opts = append(opts, option.WithCredentialsFile(f))
		}
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("firebase app init: %w", err)
		}
		authClient, err := fbApp.Auth(ctx)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("firebase auth init: %w", err)
		}
		c.UserAuth = &middleware.UserAuthMiddleware{FirebaseAuth: authClient}
		log.Info("[boot] Firebase Auth initialized")
	}

	return c, nil
}

func loadAuthority(ctx context.Context, cfg *config.Config, sm *secrets.SecretManager) (*delegationapp.Authority, error) {
	var accessor secrets.Accessor
	if sm != nil {
		accessor = sm
	}
	key, err := secrets.Resolve(ctx, accessor, cfg.AgentPrivateKey, cfg.AgentPrivateKeySecret)
	if err != nil {
		return nil, fmt.Errorf("agent private key: %w", err)
	}
	proof, err := secrets.Resolve(ctx, accessor, cfg.DelegationProof, cfg.DelegationProofSecret)
	if err != nil {
		return nil, fmt.Errorf("delegation proof: %w", err)
	}
	if key == "" && proof == "" {
		return nil, nil
	}
	a, err := delegationapp.NewAuthority(key, proof)
	if err != nil {
		return nil, fmt.Errorf("delegation authority: %w", err)
	}
	return a, nil
}

func (c *Container) buildLaunchRepository(ctx context.Context) (launchdom.Repository, error) {
	cfg := c.Config

	if pid := strings.TrimSpace(cfg.GetFirestoreProjectID()); pid != "" {
		fs, err := firestoreinfra.NewClient(ctx, pid, cfg.CredentialsFile())
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, fs.Close)
		log.WithField("collection", cfg.LaunchesCollection).Info("[boot] launch records: firestore")
		return fsrepo.NewLaunchRepositoryFS(fs.Client, cfg.LaunchesCollection), nil
	}

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := database.NewConnection(ctx, dsn)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)
		repo := pgrepo.NewLaunchRepositoryPG(db.Client)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate launches: %w", err)
		}
		log.Info("[boot] launch records: postgres")
		return repo, nil
	}

	log.Warn("[boot] launch records: in-memory (set FIRESTORE_PROJECT_ID or DATABASE_URL to persist)")
	return memory.NewLaunchRepository(), nil
}

// RouterDeps は httpin.NewRouter に渡す依存を返します。
func (c *Container) RouterDeps() httpin.RouterDeps {
	deps := httpin.RouterDeps{
		DelegationUC:   c.DelegationUC,
		LaunchUC:       c.LaunchUC,
		UserAuth:       c.UserAuth,
		EnableCORS:     !c.Config.IsProduction(),
		AllowedOrigins: c.Config.AllowedOrigins,
	}
	if c.Config.IsProduction() {
		deps.StaticDir = c.Config.StaticDir
	}
	return deps
}

// Close は Cloud Run 終了時などに呼んで安全にリソースを閉じる。
func (c *Container) Close() {
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
