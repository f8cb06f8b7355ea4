package launch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	launchdom "launchpad/internal/domain/launch"
	"launchpad/internal/infra/solana"
	"launchpad/internal/infra/storage"
)

// ------------------------------------------------------------
// fakes
// ------------------------------------------------------------

type fakeUploader struct {
	mu       sync.Mutex
	files    []launchdom.File
	failAt   int // 1-based upload index to fail, 0 = never
	notReady bool
	block    chan struct{}
}

func (u *fakeUploader) Ready() bool { return !u.notReady }

func (u *fakeUploader) UploadFile(ctx context.Context, f launchdom.File) (launchdom.StoredObject, error) {
	if u.block != nil {
		<-u.block
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.files = append(u.files, f)
	if u.failAt == len(u.files) {
		return launchdom.StoredObject{}, errors.New("gateway unavailable")
	}
	cid := storage.ContentAddress(f.Data)
	return launchdom.StoredObject{CID: cid, URL: fmt.Sprintf("https://%s.ipfs.w3s.link/", cid)}, nil
}

type fakeChain struct {
	rentSizes  []uint64
	sent       []types.Transaction
	confirmErr error
	verifyErr  error
}

func (c *fakeChain) MinimumBalanceForRentExemption(_ context.Context, size uint64) (uint64, error) {
	c.rentSizes = append(c.rentSizes, size)
	return size * 2, nil
}

func (c *fakeChain) LatestBlockhash(context.Context) (string, error) {
	return types.NewAccount().PublicKey.ToBase58(), nil
}

func (c *fakeChain) SendTransaction(_ context.Context, tx types.Transaction) (string, error) {
	c.sent = append(c.sent, tx)
	return fakeSignature, nil
}

func (c *fakeChain) ConfirmTransaction(context.Context, string) error { return c.confirmErr }

func (c *fakeChain) VerifyLaunch(context.Context, string, string) error { return c.verifyErr }

var fakeSignature = base58.Encode(make([]byte, 64))

type fakeRecorder struct{ records []launchdom.Record }

func (r *fakeRecorder) Record(_ context.Context, rec launchdom.Record) error {
	r.records = append(r.records, rec)
	return nil
}

type failingNotifier struct{ calls int }

func (n *failingNotifier) NotifyLaunch(context.Context, launchdom.Record) error {
	n.calls++
	return errors.New("smtp down")
}

func testForm() launchdom.Form {
	return launchdom.Form{
		Name:          "Launch Token",
		Symbol:        "LNCH",
		Image:         &launchdom.File{Name: "logo.png", ContentType: "image/png", Data: []byte("png-bytes")},
		InitialSupply: 1_000_000,
	}
}

func newTestOrchestrator(u *fakeUploader, c *fakeChain, mint types.Account) *Orchestrator {
	o := NewOrchestrator(u, c, "devnet")
	o.NewMintAccount = func() types.Account { return mint }
	return o
}

// ------------------------------------------------------------
// Orchestrator
// ------------------------------------------------------------

func TestCreateTokenHappyPath(t *testing.T) {
	u, c := &fakeUploader{}, &fakeChain{}
	rec, notif := &fakeRecorder{}, &failingNotifier{}
	mint := types.NewAccount()
	walletAcc := types.NewAccount()

	o := newTestOrchestrator(u, c, mint)
	o.SetRecorder(rec)
	o.SetNotifier(notif)

	res, err := o.CreateToken(context.Background(), solana.NewKeypairWallet(walletAcc, nil), testForm())
	require.NoError(t, err)

	assert.Equal(t, mint.PublicKey.ToBase58(), res.MintAddress)
	assert.Equal(t, fakeSignature, res.Signature)
	assert.Equal(t, "https://explorer.solana.com/address/"+mint.PublicKey.ToBase58()+"?cluster=devnet", res.ExplorerURL)

	// image first, then metadata that references it
	require.Len(t, u.files, 2)
	assert.Equal(t, "logo.png", u.files[0].Name)
	assert.Equal(t, "application/json", u.files[1].ContentType)
	assert.Regexp(t, `^metadata_\d+\.json$`, u.files[1].Name)

	var meta launchdom.OffChainMetadata
	require.NoError(t, json.Unmarshal(u.files[1].Data, &meta))
	assert.Equal(t, res.ImageURI, meta.Image)
	assert.Equal(t, walletAcc.PublicKey.ToBase58(), meta.Properties.Creators[0].Address)

	// rent covers mint + metadata, the account itself is created with the mint size
	require.Len(t, c.rentSizes, 1)
	assert.Greater(t, c.rentSizes[0], uint64(234))

	require.Len(t, c.sent, 1)
	tx := c.sent[0]
	require.Len(t, tx.Message.Instructions, 6)
	programs := make([]string, 0, 6)
	for _, ix := range tx.Message.Instructions {
		programs = append(programs, tx.Message.Accounts[ix.ProgramIDIndex].ToBase58())
	}
	t22 := solana.Token2022ProgramID.ToBase58()
	assert.Equal(t, []string{
		solana.SystemProgramID.ToBase58(), t22, t22, t22,
		solana.AssociatedTokenProgramID.ToBase58(), t22,
	}, programs)
	assert.Equal(t, walletAcc.PublicKey, tx.Message.Accounts[0])

	require.Len(t, rec.records, 1)
	assert.Equal(t, res.MintAddress, rec.records[0].Mint)
	assert.NoError(t, rec.records[0].Validate())
	assert.Equal(t, 1, notif.calls, "notifier failure must not fail the launch")
}

func TestCreateTokenImageUploadFailureSkipsChain(t *testing.T) {
	u, c := &fakeUploader{failAt: 1}, &fakeChain{}

	_, err := newTestOrchestrator(u, c, types.NewAccount()).
		CreateToken(context.Background(), solana.NewKeypairWallet(types.NewAccount(), nil), testForm())

	assert.ErrorIs(t, err, ErrImageUpload)
	assert.Equal(t, "Could not get CID for image", UserMessage(err))
	assert.Len(t, u.files, 1)
	assert.Empty(t, c.rentSizes)
	assert.Empty(t, c.sent)
}

func TestCreateTokenMetadataUploadFailureSkipsChain(t *testing.T) {
	u, c := &fakeUploader{failAt: 2}, &fakeChain{}

	_, err := newTestOrchestrator(u, c, types.NewAccount()).
		CreateToken(context.Background(), solana.NewKeypairWallet(types.NewAccount(), nil), testForm())

	assert.ErrorIs(t, err, ErrMetadataUpload)
	assert.Equal(t, "Could not get CID for JSON", UserMessage(err))
	assert.Empty(t, c.sent)
}

func TestCreateTokenWalletRejects(t *testing.T) {
	u, c := &fakeUploader{}, &fakeChain{}
	w := solana.NewKeypairWallet(types.NewAccount(), func(context.Context, []byte) (bool, error) { return false, nil })

	_, err := newTestOrchestrator(u, c, types.NewAccount()).CreateToken(context.Background(), w, testForm())
	assert.ErrorIs(t, err, solana.ErrWalletRejected)
	assert.Equal(t, "User rejected the request.", UserMessage(err))
	assert.Empty(t, c.sent)
}

func TestCreateTokenConfirmFailureSkipsHooks(t *testing.T) {
	u := &fakeUploader{}
	c := &fakeChain{confirmErr: fmt.Errorf("%w: InstructionError", solana.ErrTransactionFailed)}
	rec := &fakeRecorder{}

	o := newTestOrchestrator(u, c, types.NewAccount())
	o.SetRecorder(rec)

	_, err := o.CreateToken(context.Background(), solana.NewKeypairWallet(types.NewAccount(), nil), testForm())
	assert.ErrorIs(t, err, solana.ErrTransactionFailed)
	assert.Equal(t, "The transaction failed on chain. No token was created.", UserMessage(err))
	assert.Empty(t, rec.records)
}

func TestCreateTokenSucceedsWhenMintNotYetVisible(t *testing.T) {
	u := &fakeUploader{}
	c := &fakeChain{verifyErr: solana.ErrMintNotFound}
	rec := &fakeRecorder{}
	mint := types.NewAccount()
	o := newTestOrchestrator(u, c, mint)
	o.SetRecorder(rec)
	s := NewSession(o, u)
	s.ConnectWallet(solana.NewKeypairWallet(types.NewAccount(), nil))
	s.SetForm(testForm())

	st, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, mint.PublicKey.ToBase58(), st.Result.MintAddress)
	assert.Equal(t, launchdom.Form{}, s.Form())
	assert.Len(t, c.sent, 1)
	assert.Len(t, rec.records, 1)
}

func TestCreateTokenRequiresWalletAndValidForm(t *testing.T) {
	o := newTestOrchestrator(&fakeUploader{}, &fakeChain{}, types.NewAccount())

	_, err := o.CreateToken(context.Background(), nil, testForm())
	assert.ErrorIs(t, err, ErrWalletNotConnected)

	f := testForm()
	f.InitialSupply = 0
	_, err = o.CreateToken(context.Background(), solana.NewKeypairWallet(types.NewAccount(), nil), f)
	assert.ErrorIs(t, err, launchdom.ErrSupplyRequired)
}

// ------------------------------------------------------------
// Session
// ------------------------------------------------------------

func TestSessionPreconditions(t *testing.T) {
	u := &fakeUploader{}
	s := NewSession(newTestOrchestrator(u, &fakeChain{}, types.NewAccount()), u)

	assert.False(t, s.CanSubmit())

	s.SetForm(testForm())
	assert.True(t, s.CanSubmit())

	st, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrWalletNotConnected)
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "Please connect your wallet", st.Message)

	s.ConnectWallet(solana.NewKeypairWallet(types.NewAccount(), nil))
	u.notReady = true
	st, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrStorageNotReady)
	assert.Equal(t, "Storage client is not ready. Please wait a moment.", st.Message)

	f := testForm()
	f.Image = nil
	s.SetForm(f)
	u.notReady = false
	st, _ = s.Submit(context.Background())
	assert.Equal(t, "Please upload an image file.", st.Message)
}

func TestSessionSuccessClearsForm(t *testing.T) {
	u := &fakeUploader{}
	s := NewSession(newTestOrchestrator(u, &fakeChain{}, types.NewAccount()), u)
	s.ConnectWallet(solana.NewKeypairWallet(types.NewAccount(), nil))
	s.SetForm(testForm())

	st, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.NotEmpty(t, st.Result.MintAddress)
	assert.Equal(t, launchdom.Form{}, s.Form())
	assert.False(t, s.CanSubmit())
}

func TestSessionErrorKeepsForm(t *testing.T) {
	u := &fakeUploader{}
	c := &fakeChain{confirmErr: solana.ErrConfirmTimeout}
	s := NewSession(newTestOrchestrator(u, c, types.NewAccount()), u)
	s.ConnectWallet(solana.NewKeypairWallet(types.NewAccount(), nil))
	s.SetForm(testForm())

	st, err := s.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, testForm().Name, s.Form().Name)
	assert.True(t, s.CanSubmit())
}

func TestSessionRejectsConcurrentSubmit(t *testing.T) {
	u := &fakeUploader{block: make(chan struct{})}
	s := NewSession(newTestOrchestrator(u, &fakeChain{}, types.NewAccount()), u)
	s.ConnectWallet(solana.NewKeypairWallet(types.NewAccount(), nil))
	s.SetForm(testForm())

	done := make(chan State, 1)
	go func() {
		st, _ := s.Submit(context.Background())
		done <- st
	}()

	require.Eventually(t, func() bool { return s.State().Phase == PhaseSubmitting }, time.Second, 10*time.Millisecond)
	assert.False(t, s.CanSubmit())

	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(u.block)
	assert.Equal(t, PhaseSuccess, (<-done).Phase)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "Image size cannot exceed 300kb. Please upload a smaller image.", UserMessage(launchdom.ErrImageTooLarge))
	assert.Equal(t, "Delegation proof did not specify a space to use.", UserMessage(fmt.Errorf("init: %w", storage.ErrNoSpace)))
	assert.Equal(t, "rpc down", UserMessage(errors.New("rpc down")))
	assert.Equal(t, "Could not send the transaction. Please try again.",
		UserMessage(fmt.Errorf("%w: SendTransaction: blockhash not found", ErrTransaction)))
	assert.Equal(t, "The transaction failed on chain. No token was created.",
		UserMessage(fmt.Errorf("%w: InstructionError", solana.ErrTransactionFailed)))
	assert.Equal(t, "Solana RPC is not configured.",
		UserMessage(fmt.Errorf("%w: %w", ErrTransaction, solana.ErrChainNotConfigured)))
	assert.Equal(t, "Failed to initialize client: boom.", InitFailureMessage(errors.New("boom")))
}
