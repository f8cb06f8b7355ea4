// internal/infra/solana/token2022.go
package solana

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

// Program / sysvar IDs
var (
	Token2022ProgramID       = common.PublicKeyFromString("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBW8vgqqoxewo")
	AssociatedTokenProgramID = common.PublicKeyFromString("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SystemProgramID          = common.PublicKeyFromString("11111111111111111111111111111111")
	RentSysvarID             = common.PublicKeyFromString("SysvarRent111111111111111111111111111111111")
)

// Account layout sizes (spl-token / token-2022)
const (
	MintSize         = 82
	AccountSize      = 165
	MultisigSize     = 355
	accountTypeSize  = 1
	tlvTypeSize      = 2
	tlvLengthSize    = 2
	metadataPointerN = 64
)

// ExtensionType は Token-2022 の mint 拡張の種別です。
type ExtensionType uint16

const (
	ExtTransferFeeConfig     ExtensionType = 1
	ExtMintCloseAuthority    ExtensionType = 3
	ExtNonTransferable       ExtensionType = 9
	ExtInterestBearingConfig ExtensionType = 10
	ExtPermanentDelegate     ExtensionType = 12
	ExtMetadataPointer       ExtensionType = 18
)

var extensionLen = map[ExtensionType]int{
	ExtTransferFeeConfig:     108,
	ExtMintCloseAuthority:    32,
	ExtNonTransferable:       0,
	ExtInterestBearingConfig: 52,
	ExtPermanentDelegate:     32,
	ExtMetadataPointer:       metadataPointerN,
}

// MintLen returns the account size for a mint carrying the given fixed-size extensions.
func MintLen(exts ...ExtensionType) (uint64, error) {
	if len(exts) == 0 {
		return MintSize, nil
	}
	n := AccountSize + accountTypeSize
	for _, e := range exts {
		l, ok := extensionLen[e]
		if !ok {
			return 0, fmt.Errorf("solana: unknown extension type %d", e)
		}
		n += tlvTypeSize + tlvLengthSize + l
	}
	// a mint must never be mistaken for a multisig
	if n == MultisigSize {
		n += tlvTypeSize
	}
	return uint64(n), nil
}

type metadataKV struct {
	Key   string
	Value string
}

// borsh layout of spl_token_metadata_interface::state::TokenMetadata
type packedTokenMetadata struct {
	UpdateAuthority [32]byte
	Mint            [32]byte
	Name            string
	Symbol          string
	URI             string
	Additional      []metadataKV
}

// TokenMetadata is the variable-length metadata stored in the mint account.
type TokenMetadata struct {
	UpdateAuthority common.PublicKey
	Mint            common.PublicKey
	Name            string
	Symbol          string
	URI             string
	Additional      [][2]string
}

func (m TokenMetadata) pack() ([]byte, error) {
	p := packedTokenMetadata{
		UpdateAuthority: m.UpdateAuthority,
		Mint:            m.Mint,
		Name:            m.Name,
		Symbol:          m.Symbol,
		URI:             m.URI,
		Additional:      make([]metadataKV, 0, len(m.Additional)),
	}
	for _, kv := range m.Additional {
		p.Additional = append(p.Additional, metadataKV{Key: kv[0], Value: kv[1]})
	}
	return borsh.Serialize(p)
}

// MetadataLen is the TLV entry size of m (type + length + packed body).
func MetadataLen(m TokenMetadata) (uint64, error) {
	b, err := m.pack()
	if err != nil {
		return 0, fmt.Errorf("solana: pack token metadata: %w", err)
	}
	return uint64(tlvTypeSize + tlvLengthSize + len(b)), nil
}

// ============================================================
// Instruction builders
// ============================================================

const (
	ixInitializeMint          = 0
	ixMintTo                  = 7
	ixMetadataPointerExt      = 39
	ixMetadataPointerInitCode = 0
)

var tokenMetadataInitializeDiscriminator = func() []byte {
	h := sha256.Sum256([]byte("spl_token_metadata_interface:initialize_account"))
	return h[:8]
}()

type CreateMintAccountParam struct {
	Payer    common.PublicKey
	Mint     common.PublicKey
	Lamports uint64
	Space    uint64
}

// CreateMintAccount allocates the mint account owned by Token-2022.
func CreateMintAccount(p CreateMintAccountParam) types.Instruction {
	return system.CreateAccount(system.CreateAccountParam{
		From:     p.Payer,
		New:      p.Mint,
		Owner:    Token2022ProgramID,
		Lamports: p.Lamports,
		Space:    p.Space,
	})
}

// InitializeMetadataPointer points the mint's metadata at metadataAddress.
func InitializeMetadataPointer(mint, authority, metadataAddress common.PublicKey) types.Instruction {
	data := make([]byte, 0, 2+32+32)
	data = append(data, ixMetadataPointerExt, ixMetadataPointerInitCode)
	data = append(data, authority.Bytes()...)
	data = append(data, metadataAddress.Bytes()...)

	return types.Instruction{
		ProgramID: Token2022ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: mint, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}
}

type initializeMintData struct {
	Instruction     uint8
	Decimals        uint8
	MintAuthority   [32]byte
	FreezeAuthority *[32]byte
}

type InitializeMintParam struct {
	Mint            common.PublicKey
	Decimals        uint8
	MintAuthority   common.PublicKey
	FreezeAuthority *common.PublicKey
}

func InitializeMint(p InitializeMintParam) (types.Instruction, error) {
	d := initializeMintData{
		Instruction:   ixInitializeMint,
		Decimals:      p.Decimals,
		MintAuthority: p.MintAuthority,
	}
	if p.FreezeAuthority != nil {
		fa := [32]byte(*p.FreezeAuthority)
		d.FreezeAuthority = &fa
	}
	data, err := borsh.Serialize(d)
	if err != nil {
		return types.Instruction{}, fmt.Errorf("solana: serialize InitializeMint: %w", err)
	}

	return types.Instruction{
		ProgramID: Token2022ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Mint, IsSigner: false, IsWritable: true},
			{PubKey: RentSysvarID, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

type initializeTokenMetadataData struct {
	Name   string
	Symbol string
	URI    string
}

type InitializeTokenMetadataParam struct {
	Metadata        common.PublicKey
	UpdateAuthority common.PublicKey
	Mint            common.PublicKey
	MintAuthority   common.PublicKey
	Name            string
	Symbol          string
	URI             string
}

func InitializeTokenMetadata(p InitializeTokenMetadataParam) (types.Instruction, error) {
	body, err := borsh.Serialize(initializeTokenMetadataData{Name: p.Name, Symbol: p.Symbol, URI: p.URI})
	if err != nil {
		return types.Instruction{}, fmt.Errorf("solana: serialize token metadata: %w", err)
	}
	data := make([]byte, 0, len(tokenMetadataInitializeDiscriminator)+len(body))
	data = append(data, tokenMetadataInitializeDiscriminator...)
	data = append(data, body...)

	return types.Instruction{
		ProgramID: Token2022ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Metadata, IsSigner: false, IsWritable: true},
			{PubKey: p.UpdateAuthority, IsSigner: false, IsWritable: false},
			{PubKey: p.Mint, IsSigner: false, IsWritable: false},
			{PubKey: p.MintAuthority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}, nil
}

// FindAssociatedTokenAddress derives owner's Token-2022 associated account for mint.
func FindAssociatedTokenAddress(owner, mint common.PublicKey) (common.PublicKey, error) {
	ata, _, err := common.FindProgramAddress(
		[][]byte{owner.Bytes(), Token2022ProgramID.Bytes(), mint.Bytes()},
		AssociatedTokenProgramID,
	)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("solana: derive associated token address: %w", err)
	}
	return ata, nil
}

// CreateAssociatedTokenAccount builds the ATA create instruction for Token-2022.
// Accounts:
// 0. [writable,signer] payer
// 1. [writable] associated token account address
// 2. [] owner
// 3. [] mint
// 4. [] system program
// 5. [] token program
func CreateAssociatedTokenAccount(payer, ata, owner, mint common.PublicKey) types.Instruction {
	return types.Instruction{
		ProgramID: AssociatedTokenProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: payer, IsSigner: true, IsWritable: true},
			{PubKey: ata, IsSigner: false, IsWritable: true},
			{PubKey: owner, IsSigner: false, IsWritable: false},
			{PubKey: mint, IsSigner: false, IsWritable: false},
			{PubKey: SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: Token2022ProgramID, IsSigner: false, IsWritable: false},
		},
		Data: []byte{},
	}
}

// MintTo mints amount base units into destination.
func MintTo(mint, destination, authority common.PublicKey, amount uint64) types.Instruction {
	data := make([]byte, 9)
	data[0] = ixMintTo
	binary.LittleEndian.PutUint64(data[1:], amount)

	return types.Instruction{
		ProgramID: Token2022ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: mint, IsSigner: false, IsWritable: true},
			{PubKey: destination, IsSigner: false, IsWritable: true},
			{PubKey: authority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}
}

// ============================================================
// Launch transaction
// ============================================================

// MintParams は 1 回のトークン作成に必要な値です。
// Payer がミント権限・フリーズ権限・更新権限・受取人を兼ねます。
type MintParams struct {
	Payer    common.PublicKey
	Mint     common.PublicKey
	Decimals uint8
	Amount   uint64 // base units
	Name     string
	Symbol   string
	URI      string
	Lamports uint64 // rent for mint + metadata
	Space    uint64 // mint account size without metadata
}

// LaunchSizes computes the mint account size and the total size rent must cover.
func LaunchSizes(payer, mint common.PublicKey, name, symbol, uri string) (space, rentSize uint64, err error) {
	space, err = MintLen(ExtMetadataPointer)
	if err != nil {
		return 0, 0, err
	}
	metaLen, err := MetadataLen(TokenMetadata{
		UpdateAuthority: payer,
		Mint:            mint,
		Name:            name,
		Symbol:          symbol,
		URI:             uri,
	})
	if err != nil {
		return 0, 0, err
	}
	return space, space + metaLen, nil
}

// BuildMintInstructions returns, in order:
// create account, metadata pointer init, mint init, metadata init, ATA create, mint-to.
func BuildMintInstructions(p MintParams) ([]types.Instruction, common.PublicKey, error) {
	ata, err := FindAssociatedTokenAddress(p.Payer, p.Mint)
	if err != nil {
		return nil, common.PublicKey{}, err
	}

	initMint, err := InitializeMint(InitializeMintParam{
		Mint:            p.Mint,
		Decimals:        p.Decimals,
		MintAuthority:   p.Payer,
		FreezeAuthority: &p.Payer,
	})
	if err != nil {
		return nil, common.PublicKey{}, err
	}

	initMeta, err := InitializeTokenMetadata(InitializeTokenMetadataParam{
		Metadata:        p.Mint,
		UpdateAuthority: p.Payer,
		Mint:            p.Mint,
		MintAuthority:   p.Payer,
		Name:            p.Name,
		Symbol:          p.Symbol,
		URI:             p.URI,
	})
	if err != nil {
		return nil, common.PublicKey{}, err
	}

	return []types.Instruction{
		CreateMintAccount(CreateMintAccountParam{
			Payer:    p.Payer,
			Mint:     p.Mint,
			Lamports: p.Lamports,
			Space:    p.Space,
		}),
		InitializeMetadataPointer(p.Mint, p.Payer, p.Mint),
		initMint,
		initMeta,
		CreateAssociatedTokenAccount(p.Payer, ata, p.Payer, p.Mint),
		MintTo(p.Mint, ata, p.Payer, p.Amount),
	}, ata, nil
}
