// cmd/launchpad/main.go
//
// トークン作成クライアント: フォームの各項目をフラグで受け取り、
// 画像とメタデータを保存してから Token-2022 ミントを作成します。
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	launchapp "launchpad/internal/application/launch"
	launchdom "launchpad/internal/domain/launch"
	"launchpad/internal/infra/config"
	"launchpad/internal/infra/logging"
	"launchpad/internal/platform/di"
)

func main() {
	var (
		name        string
		symbol      string
		imagePath   string
		supply      uint64
		notifyEmail string
		yes         bool
	)
	flag.StringVar(&name, "name", "", "token name (max 20 characters)")
	flag.StringVar(&symbol, "symbol", "", "token symbol (max 10 characters)")
	flag.StringVar(&imagePath, "image", "", "token image (png, jpeg or gif, max 300kb)")
	flag.Uint64Var(&supply, "supply", 0, "initial supply in whole tokens")
	flag.StringVar(&notifyEmail, "notify-email", "", "send a receipt to this address (needs SENDGRID_API_KEY)")
	flag.BoolVar(&yes, "yes", false, "sign without asking")
	flag.Parse()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logging.Setup(cfg.LogLevel, false, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	form := launchdom.Form{
		Name:          name,
		Symbol:        symbol,
		InitialSupply: supply,
	}
	if imagePath != "" {
		img, err := readImage(imagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		form.Image = img
	}

	opts := di.ClientOptions{NotifyEmail: notifyEmail}
	if !yes {
		opts.Approver = promptApprover(form)
	}

	cont, err := di.NewClientContainer(ctx, cfg, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cont.Close()

	if err := cont.InitStorage(ctx); err != nil {
		log.WithError(err).Error("[storage] init failed")
		fmt.Fprintln(os.Stderr, launchapp.InitFailureMessage(err))
		os.Exit(1)
	}

	cont.Session.SetForm(form)
	if !cont.Session.CanSubmit() {
		fmt.Fprintln(os.Stderr, launchapp.UserMessage(form.Validate()))
		os.Exit(2)
	}

	fmt.Println("Creating token...")
	st, err := cont.Session.Submit(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", st.Message)
		os.Exit(1)
	}

	res := st.Result
	fmt.Println("Token created successfully!")
	fmt.Printf("  Mint address: %s\n", res.MintAddress)
	fmt.Printf("  Signature:    %s\n", res.Signature)
	fmt.Printf("  Metadata:     %s\n", res.MetadataURI)
	fmt.Printf("  View on Solana Explorer: %s\n", res.ExplorerURL)
}

func readImage(path string) (*launchdom.File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	// 読み込む前にサイズだけ確認する
	if fi.Size() > launchdom.MaxImageSize {
		return nil, fmt.Errorf("%s", launchapp.UserMessage(launchdom.ErrImageTooLarge))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return &launchdom.File{Name: filepath.Base(path), ContentType: ct, Data: data}, nil
}

// promptApprover asks on the terminal before the wallet signs.
func promptApprover(form launchdom.Form) func(context.Context, []byte) (bool, error) {
	return func(_ context.Context, msg []byte) (bool, error) {
		fmt.Printf("Sign transaction creating %s (%s) with supply %d? [y/N] ",
			strings.TrimSpace(form.Name), strings.TrimSpace(form.Symbol), form.InitialSupply)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return false, nil
		}
		ans := strings.ToLower(strings.TrimSpace(line))
		return ans == "y" || ans == "yes", nil
	}
}
