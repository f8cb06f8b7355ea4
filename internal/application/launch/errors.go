// internal/application/launch/errors.go
package launch

import (
	"errors"
	"strings"

	launchdom "launchpad/internal/domain/launch"
	"launchpad/internal/infra/solana"
	"launchpad/internal/infra/storage"
)

var (
	ErrWalletNotConnected = errors.New("launch: wallet not connected")
	ErrStorageNotReady    = errors.New("launch: storage client not ready")
	ErrSubmissionInFlight = errors.New("launch: a submission is already in flight")
	ErrImageUpload        = errors.New("launch: could not get CID for image")
	ErrMetadataUpload     = errors.New("launch: could not get CID for JSON")
	ErrTransaction        = errors.New("launch: transaction failed")
)

const unknownErrorMessage = "An unknown error occurred during token creation."

var userMessages = []struct {
	err error
	msg string
}{
	{ErrWalletNotConnected, "Please connect your wallet"},
	{ErrStorageNotReady, "Storage client is not ready. Please wait a moment."},
	{ErrSubmissionInFlight, "A token is already being created. Please wait."},
	{storage.ErrNotReady, "Storage client is not ready. Please wait a moment."},
	{storage.ErrNoSpace, "Delegation proof did not specify a space to use."},
	{launchdom.ErrImageRequired, "Please upload an image file."},
	{launchdom.ErrImageTooLarge, "Image size cannot exceed 300kb. Please upload a smaller image."},
	{launchdom.ErrImageType, "Please upload a PNG, JPEG or GIF image."},
	{launchdom.ErrNameRequired, "Please enter a token name."},
	{launchdom.ErrNameTooLong, "Token name cannot exceed 20 characters."},
	{launchdom.ErrSymbolRequired, "Please enter a token symbol."},
	{launchdom.ErrSymbolTooLong, "Token symbol cannot exceed 10 characters."},
	{launchdom.ErrSupplyRequired, "Initial supply must be greater than zero."},
	{launchdom.ErrSupplyTooLarge, "Initial supply is too large."},
	{ErrImageUpload, "Could not get CID for image"},
	{ErrMetadataUpload, "Could not get CID for JSON"},
	{solana.ErrWalletRejected, "User rejected the request."},
	{solana.ErrConfirmTimeout, "Transaction was not confirmed in time. Check the explorer before retrying."},
	{solana.ErrTransactionFailed, "The transaction failed on chain. No token was created."},
	{solana.ErrChainNotConfigured, "Solana RPC is not configured."},
	// 上の個別エラーに当たらなかった送信前後の失敗
	{ErrTransaction, "Could not send the transaction. Please try again."},
}

// UserMessage converts any submission failure into the single string shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return unknownErrorMessage
	}
	return msg
}

// InitFailureMessage is shown when the storage client cannot be set up.
func InitFailureMessage(err error) string {
	if errors.Is(err, storage.ErrNoSpace) {
		return "Delegation proof did not specify a space to use."
	}
	return "Failed to initialize client: " + strings.TrimSpace(err.Error()) + "."
}
