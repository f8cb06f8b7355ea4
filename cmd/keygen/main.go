// cmd/keygen/main.go
//
// Delegation Service 用の鍵を生成する小さなツールです。
// - agent 鍵（AGENT_PRIVATE_KEY）
// - space 鍵と root delegation（space → agent, can "*"）＝ DELEGATION_PROOF
// - 任意で Solana CLI 互換の keypair ファイル
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	log "github.com/sirupsen/logrus"

	"launchpad/internal/infra/solana"
	"launchpad/internal/infra/ucan"
)

func main() {
	var (
		ttl        time.Duration
		agentKey   string
		solanaPath string
		can        string
	)
	flag.DurationVar(&ttl, "ttl", 365*24*time.Hour, "root delegation lifetime")
	flag.StringVar(&agentKey, "agent", "", "reuse an existing agent key instead of generating one")
	flag.StringVar(&can, "can", "*", "ability granted by the root delegation")
	flag.StringVar(&solanaPath, "solana-keypair", "", "also write a Solana CLI keypair to this path")
	flag.Parse()

	// 1. agent
	var (
		agent *ucan.Principal
		err   error
	)
	if agentKey != "" {
		agent, err = ucan.ParsePrincipal(agentKey)
	} else {
		agent, err = ucan.GeneratePrincipal()
	}
	if err != nil {
		log.Fatalf("agent key: %v", err)
	}

	// 2. space + root proof
	space, err := ucan.GeneratePrincipal()
	if err != nil {
		log.Fatalf("space key: %v", err)
	}
	root, err := ucan.Delegate(ucan.DelegateParams{
		Issuer:       space,
		Audience:     agent.DID(),
		Capabilities: []ucan.Capability{{With: space.DID(), Can: can}},
		Expiration:   time.Now().Add(ttl),
	})
	if err != nil {
		log.Fatalf("root delegation: %v", err)
	}

	fmt.Println("# agent:", agent.DID())
	fmt.Println("# space:", space.DID())
	fmt.Println("# space key (keep offline):", ucan.FormatPrincipal(space))
	fmt.Printf("# root proof expires: %s\n", root.Expiration.UTC().Format(time.RFC3339))
	fmt.Printf("AGENT_PRIVATE_KEY=%s\n", ucan.FormatPrincipal(agent))
	fmt.Printf("DELEGATION_PROOF=%s\n", root.Token())

	// 3. Solana keypair（任意）
	if solanaPath == "" {
		return
	}
	if _, err := os.Stat(solanaPath); err == nil {
		log.Fatalf("%s already exists; refusing to overwrite", solanaPath)
	}
	acc := types.NewAccount()
	data, err := solana.EncodeKeypairJSON(acc)
	if err != nil {
		log.Fatalf("encode keypair: %v", err)
	}
	if err := os.WriteFile(solanaPath, data, 0o600); err != nil {
		log.Fatalf("failed to write %s: %v", solanaPath, err)
	}
	fmt.Printf("# solana wallet: %s (%s)\n", acc.PublicKey.ToBase58(), solanaPath)
	fmt.Fprintln(os.Stderr, "IMPORTANT: do not commit the keypair file; store it in Secret Manager (WALLET_KEYPAIR_SECRET).")
}
