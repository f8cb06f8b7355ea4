// internal/adapters/out/mail/launch_receipt_mailer.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	launchdom "launchpad/internal/domain/launch"
)

// EmailClient は実際のメール送信クライアント（SendGrid など）を
// 抽象化した下位レベルのインターフェースです。
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// LaunchReceiptMailer implements launch.Notifier: one mail per created token.
type LaunchReceiptMailer struct {
	client      EmailClient
	fromAddress string
	toAddress   string
}

func NewLaunchReceiptMailer(client EmailClient, fromAddress, toAddress string) *LaunchReceiptMailer {
	return &LaunchReceiptMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
		toAddress:   strings.TrimSpace(toAddress),
	}
}

func (m *LaunchReceiptMailer) NotifyLaunch(ctx context.Context, r launchdom.Record) error {
	if m == nil || m.client == nil {
		return errors.New("mail: receipt mailer not configured")
	}
	subject, body := BuildLaunchReceipt(r)
	return m.client.Send(ctx, m.fromAddress, m.toAddress, subject, body)
}

// BuildLaunchReceipt returns the subject and plain text body.
func BuildLaunchReceipt(r launchdom.Record) (string, string) {
	subject := fmt.Sprintf("[Launchpad] %s (%s) was created", r.Name, r.Symbol)

	body := fmt.Sprintf(
		`Your token has been created on Solana %s.

Name:      %s
Symbol:    %s
Mint:      %s
Signature: %s
Metadata:  %s

Explorer:    %s
Transaction: %s
`,
		clusterLabel(r.Cluster),
		r.Name,
		r.Symbol,
		r.Mint,
		r.Signature,
		r.MetadataURI,
		launchdom.ExplorerURL(r.Mint, r.Cluster),
		launchdom.TxExplorerURL(r.Signature, r.Cluster),
	)
	return subject, body
}

func clusterLabel(c string) string {
	if strings.TrimSpace(c) == "" {
		return "mainnet-beta"
	}
	return c
}
