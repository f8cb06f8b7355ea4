// internal/infra/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	Port   string `env:"PORT" envDefault:"3001"`
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	// NODE_ENV is honoured for deployments that still export it.
	NodeEnv  string `env:"NODE_ENV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Delegation authority. Plain values win over Secret Manager names.
	AgentPrivateKey       string        `env:"AGENT_PRIVATE_KEY"`
	AgentPrivateKeySecret string        `env:"AGENT_PRIVATE_KEY_SECRET"`
	DelegationProof       string        `env:"DELEGATION_PROOF"`
	DelegationProofSecret string        `env:"DELEGATION_PROOF_SECRET"`
	DelegationTTL         time.Duration `env:"DELEGATION_TTL" envDefault:"98h"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	StaticDir      string   `env:"STATIC_DIR"`

	// Keep-alive ping target. Empty disables the job.
	APIURL            string `env:"API_URL"`
	KeepAliveSchedule string `env:"KEEPALIVE_SCHEDULE" envDefault:"*/14 * * * *"`

	// GCP
	GCPProjectID             string `env:"GCP_PROJECT_ID"`
	GCPCreds                 string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirestoreProjectID       string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreCredentialsFile string `env:"FIRESTORE_CREDENTIALS_FILE"`
	LaunchesCollection       string `env:"LAUNCHES_COLLECTION" envDefault:"launches"`
	FirebaseProjectID        string `env:"FIREBASE_PROJECT_ID"`
	RequireAuth              bool   `env:"REQUIRE_AUTH" envDefault:"false"`

	// Postgres fallback for launch records
	DatabaseURL string `env:"DATABASE_URL"`

	// Solana
	SolanaRPCURL string `env:"SOLANA_RPC_URL" envDefault:"https://api.devnet.solana.com"`
	Cluster      string `env:"SOLANA_CLUSTER" envDefault:"devnet"`
	// 記録前に署名の確定をチェーンで確認する
	VerifyLaunches bool `env:"VERIFY_LAUNCHES" envDefault:"true"`
}

// Load は環境変数を読み込み Config を返します。
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Port = strings.TrimSpace(cfg.Port)
	cfg.StaticDir = strings.TrimSpace(cfg.StaticDir)
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)

	if cfg.FirestoreProjectID == "" {
		cfg.FirestoreProjectID = cfg.GCPProjectID
	}
	if cfg.FirebaseProjectID == "" {
		cfg.FirebaseProjectID = cfg.FirestoreProjectID
	}
	if cfg.DelegationTTL <= 0 {
		return nil, fmt.Errorf("config: DELEGATION_TTL must be positive, got %s", cfg.DelegationTTL)
	}

	return &cfg, nil
}

// IsProduction reports whether APP_ENV (or the legacy NODE_ENV) selects production.
func (c *Config) IsProduction() bool {
	if c == nil {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(c.AppEnv), "production") {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.NodeEnv), "production")
}

// GetFirestoreProjectID は Firestore/GCP プロジェクト ID を返します。
func (c *Config) GetFirestoreProjectID() string {
	return c.FirestoreProjectID
}

// CredentialsFile returns the credentials file used for GCP clients, if any.
func (c *Config) CredentialsFile() string {
	if f := strings.TrimSpace(c.FirestoreCredentialsFile); f != "" {
		return f
	}
	return strings.TrimSpace(c.GCPCreds)
}

// ClientConfig は cmd/launchpad（トークン作成クライアント）の設定です。
type ClientConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Delegation service base URL
	APIURL string `env:"API_URL" envDefault:"http://localhost:3001"`

	// Storage: "delegation" (default), "email" or "gcs"
	StorageBackend     string `env:"STORAGE_BACKEND" envDefault:"delegation"`
	StorageGatewayURL  string `env:"STORAGE_GATEWAY_URL" envDefault:"https://up.storacha.network"`
	StorageServiceDID  string `env:"STORAGE_SERVICE_DID" envDefault:"did:web:up.storacha.network"`
	GatewayURLTemplate string `env:"GATEWAY_URL_TEMPLATE" envDefault:"https://%s.ipfs.w3s.link/"`
	StorageEmail       string `env:"STORAGE_EMAIL"`
	GCSBucket          string `env:"GCS_BUCKET"`
	GCSPrefix          string `env:"GCS_PREFIX" envDefault:"launchpad"`
	GCPCreds           string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Wallet: keypair file path or Secret Manager version name
	WalletKeypair       string `env:"WALLET_KEYPAIR" envDefault:"~/.config/solana/id.json"`
	WalletKeypairSecret string `env:"WALLET_KEYPAIR_SECRET"`

	SolanaRPCURL string        `env:"SOLANA_RPC_URL" envDefault:"https://api.devnet.solana.com"`
	Cluster      string        `env:"SOLANA_CLUSTER" envDefault:"devnet"`
	Commitment   string        `env:"SOLANA_COMMITMENT" envDefault:"confirmed"`
	ConfirmWait  time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"90s"`

	// Receipt mail (optional)
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"no-reply@launchpad.local"`

	// Launch records (optional)
	RecordLaunches bool   `env:"RECORD_LAUNCHES" envDefault:"true"`
	AuthToken      string `env:"LAUNCHPAD_ID_TOKEN"`
}

// LoadClient は ClientConfig を環境変数から読み込みます。
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	cfg.StorageGatewayURL = strings.TrimRight(strings.TrimSpace(cfg.StorageGatewayURL), "/")
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	switch cfg.StorageBackend {
	case "delegation", "email", "gcs":
	default:
		return nil, fmt.Errorf("config: unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if cfg.StorageBackend == "email" && strings.TrimSpace(cfg.StorageEmail) == "" {
		return nil, fmt.Errorf("config: STORAGE_EMAIL is required for the email backend")
	}
	if cfg.StorageBackend == "gcs" && strings.TrimSpace(cfg.GCSBucket) == "" {
		return nil, fmt.Errorf("config: GCS_BUCKET is required for the gcs backend")
	}
	if !strings.Contains(cfg.GatewayURLTemplate, "%s") {
		return nil, fmt.Errorf("config: GATEWAY_URL_TEMPLATE must contain %%s")
	}
	return &cfg, nil
}
