package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintLen(t *testing.T) {
	n, err := MintLen()
	require.NoError(t, err)
	assert.Equal(t, uint64(82), n)

	n, err = MintLen(ExtMetadataPointer)
	require.NoError(t, err)
	assert.Equal(t, uint64(234), n)

	n, err = MintLen(ExtMetadataPointer, ExtMintCloseAuthority)
	require.NoError(t, err)
	assert.Equal(t, uint64(270), n)

	_, err = MintLen(ExtensionType(999))
	assert.Error(t, err)
}

func TestMetadataLen(t *testing.T) {
	payer := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey

	n, err := MetadataLen(TokenMetadata{UpdateAuthority: payer, Mint: mint, Name: "A", Symbol: "B", URI: "C"})
	require.NoError(t, err)
	// 2 + 2 + 32 + 32 + (4+1)*3 + 4
	assert.Equal(t, uint64(87), n)

	n2, err := MetadataLen(TokenMetadata{UpdateAuthority: payer, Mint: mint, Name: "AB", Symbol: "B", URI: "C"})
	require.NoError(t, err)
	assert.Equal(t, n+1, n2)
}

func TestInstructionData(t *testing.T) {
	payer := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey

	ix := InitializeMetadataPointer(mint, payer, mint)
	assert.Equal(t, Token2022ProgramID, ix.ProgramID)
	require.Len(t, ix.Data, 66)
	assert.Equal(t, []byte{39, 0}, ix.Data[:2])
	assert.Equal(t, payer.Bytes(), ix.Data[2:34])
	assert.Equal(t, mint.Bytes(), ix.Data[34:])

	initMint, err := InitializeMint(InitializeMintParam{Mint: mint, Decimals: 9, MintAuthority: payer, FreezeAuthority: &payer})
	require.NoError(t, err)
	require.Len(t, initMint.Data, 67)
	assert.Equal(t, byte(0), initMint.Data[0])
	assert.Equal(t, byte(9), initMint.Data[1])
	assert.Equal(t, payer.Bytes(), initMint.Data[2:34])
	assert.Equal(t, byte(1), initMint.Data[34])
	assert.Equal(t, payer.Bytes(), initMint.Data[35:])
	assert.Equal(t, RentSysvarID, initMint.Accounts[1].PubKey)

	noFreeze, err := InitializeMint(InitializeMintParam{Mint: mint, Decimals: 9, MintAuthority: payer})
	require.NoError(t, err)
	assert.Len(t, noFreeze.Data, 35)

	meta, err := InitializeTokenMetadata(InitializeTokenMetadataParam{
		Metadata: mint, UpdateAuthority: payer, Mint: mint, MintAuthority: payer,
		Name: "Tok", Symbol: "TK", URI: "https://u/",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{210, 225, 30, 162, 88, 184, 77, 141}, meta.Data[:8])
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(meta.Data[8:12]))
	assert.Equal(t, "Tok", string(meta.Data[12:15]))
	assert.True(t, meta.Accounts[3].IsSigner)

	mt := MintTo(mint, payer, payer, 1_000_000_000)
	require.Len(t, mt.Data, 9)
	assert.Equal(t, byte(7), mt.Data[0])
	assert.Equal(t, uint64(1_000_000_000), binary.LittleEndian.Uint64(mt.Data[1:]))
}

func TestBuildMintInstructionsOrder(t *testing.T) {
	payer := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey

	space, rentSize, err := LaunchSizes(payer, mint, "Tok", "TK", "https://u/")
	require.NoError(t, err)
	assert.Equal(t, uint64(234), space)
	assert.Greater(t, rentSize, space)

	ixs, ata, err := BuildMintInstructions(MintParams{
		Payer: payer, Mint: mint, Decimals: 9, Amount: 5_000_000_000,
		Name: "Tok", Symbol: "TK", URI: "https://u/", Lamports: 1234, Space: space,
	})
	require.NoError(t, err)
	require.Len(t, ixs, 6)

	wantATA, err := FindAssociatedTokenAddress(payer, mint)
	require.NoError(t, err)
	assert.Equal(t, wantATA, ata)

	assert.Equal(t, SystemProgramID, ixs[0].ProgramID)
	assert.Equal(t, byte(39), ixs[1].Data[0])
	assert.Equal(t, byte(0), ixs[2].Data[0])
	assert.Equal(t, tokenMetadataInitializeDiscriminator, ixs[3].Data[:8])
	assert.Equal(t, AssociatedTokenProgramID, ixs[4].ProgramID)
	assert.Equal(t, ata, ixs[4].Accounts[1].PubKey)
	assert.Equal(t, Token2022ProgramID, ixs[4].Accounts[5].PubKey)
	assert.Equal(t, byte(7), ixs[5].Data[0])
	assert.Equal(t, ata, ixs[5].Accounts[1].PubKey)
}

func TestNewSignedTransaction(t *testing.T) {
	walletAcc := types.NewAccount()
	mint := types.NewAccount()

	var approved bool
	w := NewKeypairWallet(walletAcc, func(context.Context, []byte) (bool, error) {
		approved = true
		return true, nil
	})

	ixs, _, err := BuildMintInstructions(MintParams{
		Payer: walletAcc.PublicKey, Mint: mint.PublicKey, Decimals: 9, Amount: 1,
		Name: "T", Symbol: "T", URI: "u", Lamports: 1, Space: 234,
	})
	require.NoError(t, err)

	blockhash := types.NewAccount().PublicKey.ToBase58()
	tx, err := NewSignedTransaction(context.Background(), w, blockhash, ixs, mint)
	require.NoError(t, err)
	assert.True(t, approved)

	data, err := tx.Message.Serialize()
	require.NoError(t, err)
	require.Len(t, tx.Signatures, 2)
	assert.Equal(t, walletAcc.PublicKey, tx.Message.Accounts[0])
	for i := 0; i < 2; i++ {
		assert.True(t, ed25519.Verify(tx.Message.Accounts[i].Bytes(), data, tx.Signatures[i]), "signature %d", i)
	}
}

func TestNewSignedTransactionRejected(t *testing.T) {
	walletAcc := types.NewAccount()
	mint := types.NewAccount()
	w := NewKeypairWallet(walletAcc, func(context.Context, []byte) (bool, error) { return false, nil })

	ixs, _, err := BuildMintInstructions(MintParams{
		Payer: walletAcc.PublicKey, Mint: mint.PublicKey, Decimals: 9, Amount: 1,
		Name: "T", Symbol: "T", URI: "u", Lamports: 1, Space: 234,
	})
	require.NoError(t, err)

	_, err = NewSignedTransaction(context.Background(), w, types.NewAccount().PublicKey.ToBase58(), ixs, mint)
	assert.ErrorIs(t, err, ErrWalletRejected)
}
