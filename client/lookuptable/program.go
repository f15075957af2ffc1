package lookuptable

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AddressLookupTableProgramID is the native program owning every lookup table
// account.
var AddressLookupTableProgramID = solana.MustPublicKeyFromBase58("AddressLookupTab1e1111111111111111111111111")

// Instruction discriminants of the address lookup table program, encoded as a
// little-endian u32 prefix.
const (
	instructionCreateLookupTable     uint32 = 0
	instructionFreezeLookupTable     uint32 = 1
	instructionExtendLookupTable     uint32 = 2
	instructionDeactivateLookupTable uint32 = 3
	instructionCloseLookupTable      uint32 = 4
)

// DeriveLookupTableAddress returns the table account owned by authority for
// the given recent slot, along with the bump seed the create instruction
// carries.
func DeriveLookupTableAddress(authority solana.PublicKey, recentSlot uint64) (solana.PublicKey, uint8, error) {
	slotBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(slotBytes, recentSlot)
	return solana.FindProgramAddress([][]byte{authority[:], slotBytes}, AddressLookupTableProgramID)
}

func MarshalIxData(s interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	err := enc.Encode(s)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func MustMarshalIxData(s interface{}) []byte {
	bz, err := MarshalIxData(s)
	if err != nil {
		panic(err)
	}

	return bz
}

type createLookupTable struct {
	RecentSlot uint64
	BumpSeed   uint8
}

func (inst createLookupTable) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint32(instructionCreateLookupTable, binary.LittleEndian); err != nil {
		return err
	}

	if err := encoder.WriteUint64(inst.RecentSlot, binary.LittleEndian); err != nil {
		return err
	}

	return encoder.WriteUint8(inst.BumpSeed)
}

type extendLookupTable struct {
	Addresses []solana.PublicKey
}

func (inst extendLookupTable) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint32(instructionExtendLookupTable, binary.LittleEndian); err != nil {
		return err
	}

	if err := encoder.WriteUint64(uint64(len(inst.Addresses)), binary.LittleEndian); err != nil {
		return err
	}

	for _, addr := range inst.Addresses {
		if err := encoder.WriteBytes(addr[:], false); err != nil {
			return err
		}
	}

	return nil
}

type discriminantOnly struct {
	Discriminant uint32
}

func (inst discriminantOnly) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteUint32(inst.Discriminant, binary.LittleEndian)
}

// NewCreateLookupTableInstruction creates an empty table at the derived
// address. The table address and bump seed must come from
// DeriveLookupTableAddress with the same authority and recent slot.
func NewCreateLookupTableInstruction(
	table, authority, payer solana.PublicKey,
	recentSlot uint64,
	bumpSeed uint8,
) solana.Instruction {
	return solana.NewInstruction(
		AddressLookupTableProgramID,
		solana.AccountMetaSlice{
			&solana.AccountMeta{
				PublicKey:  table,
				IsWritable: true,
			},
			&solana.AccountMeta{
				PublicKey: authority,
			},
			&solana.AccountMeta{
				PublicKey:  payer,
				IsWritable: true,
				IsSigner:   true,
			},
			&solana.AccountMeta{
				PublicKey: solana.SystemProgramID,
			},
		},
		MustMarshalIxData(createLookupTable{
			RecentSlot: recentSlot,
			BumpSeed:   bumpSeed,
		}),
	)
}

// NewExtendLookupTableInstruction appends addresses to the table. The program
// rejects the extend unless authority signs and the table state matches the
// last confirmed extension.
func NewExtendLookupTableInstruction(
	table, authority, payer solana.PublicKey,
	addresses []solana.PublicKey,
) solana.Instruction {
	return solana.NewInstruction(
		AddressLookupTableProgramID,
		solana.AccountMetaSlice{
			&solana.AccountMeta{
				PublicKey:  table,
				IsWritable: true,
			},
			&solana.AccountMeta{
				PublicKey: authority,
				IsSigner:  true,
			},
			&solana.AccountMeta{
				PublicKey:  payer,
				IsWritable: true,
				IsSigner:   true,
			},
			&solana.AccountMeta{
				PublicKey: solana.SystemProgramID,
			},
		},
		MustMarshalIxData(extendLookupTable{
			Addresses: addresses,
		}),
	)
}

// NewFreezeLookupTableInstruction makes the table immutable. Irreversible.
func NewFreezeLookupTableInstruction(table, authority solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		AddressLookupTableProgramID,
		solana.AccountMetaSlice{
			&solana.AccountMeta{
				PublicKey:  table,
				IsWritable: true,
			},
			&solana.AccountMeta{
				PublicKey: authority,
				IsSigner:  true,
			},
		},
		MustMarshalIxData(discriminantOnly{Discriminant: instructionFreezeLookupTable}),
	)
}

// NewDeactivateLookupTableInstruction starts the table's deactivation
// cooldown, after which it can be closed.
func NewDeactivateLookupTableInstruction(table, authority solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		AddressLookupTableProgramID,
		solana.AccountMetaSlice{
			&solana.AccountMeta{
				PublicKey:  table,
				IsWritable: true,
			},
			&solana.AccountMeta{
				PublicKey: authority,
				IsSigner:  true,
			},
		},
		MustMarshalIxData(discriminantOnly{Discriminant: instructionDeactivateLookupTable}),
	)
}

// NewCloseLookupTableInstruction reclaims a deactivated table's lamports to
// recipient.
func NewCloseLookupTableInstruction(table, authority, recipient solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		AddressLookupTableProgramID,
		solana.AccountMetaSlice{
			&solana.AccountMeta{
				PublicKey:  table,
				IsWritable: true,
			},
			&solana.AccountMeta{
				PublicKey: authority,
				IsSigner:  true,
			},
			&solana.AccountMeta{
				PublicKey:  recipient,
				IsWritable: true,
			},
		},
		MustMarshalIxData(discriminantOnly{Discriminant: instructionCloseLookupTable}),
	)
}
