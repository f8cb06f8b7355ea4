package mail

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// NewLaunchReceiptMailerWithSendGrid は SendGrid を使った LaunchReceiptMailer を生成します。
// apiKey か to が空なら nil（通知なし）を返します。
func NewLaunchReceiptMailerWithSendGrid(apiKey, from, to string) *LaunchReceiptMailer {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(to) == "" {
		return nil
	}
	if strings.TrimSpace(from) == "" {
		log.Warn("[mail] MAIL_FROM is empty. receipt mail will fail to send.")
	}

	mailer := NewLaunchReceiptMailer(NewSendGridClient(apiKey), from, to)
	log.WithField("from", from).Info("[mail] LaunchReceiptMailer initialized")
	return mailer
}
