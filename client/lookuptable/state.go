package lookuptable

import (
	"encoding/binary"
	"math"

	sdkerrors "cosmossdk.io/errors"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Table account layout:
//
//	u32  discriminator (1 = initialized)
//	u64  deactivation_slot
//	u64  last_extended_slot
//	u8   last_extended_slot_start_index
//	u8   has_authority (0|1)
//	[32] authority pubkey (present even when has_authority=0)
//	[2]  padding
//	[32]* addresses (rest of the account data)
const (
	tableStateInitialized = 1
	tableHeaderLen        = 56
)

// TableState is the decoded on-chain state of a lookup table account. The
// address order is insertion order; transactions reference entries by index
// into Addresses.
type TableState struct {
	DeactivationSlot           uint64
	LastExtendedSlot           uint64
	LastExtendedSlotStartIndex uint8
	Authority                  *solana.PublicKey
	Addresses                  solana.PublicKeySlice
}

// DecodeTableState parses a lookup table account's raw data.
func DecodeTableState(data []byte) (*TableState, error) {
	if len(data) < tableHeaderLen || (len(data)-tableHeaderLen)%32 != 0 {
		return nil, sdkerrors.Wrapf(ErrTableUnavailable, "malformed account data of %d bytes", len(data))
	}

	decoder := bin.NewBinDecoder(data)
	discriminator, err := decoder.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	if discriminator != tableStateInitialized {
		return nil, sdkerrors.Wrapf(ErrTableUnavailable, "account is not an initialized lookup table (discriminator %d)", discriminator)
	}

	state := &TableState{}
	if state.DeactivationSlot, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return nil, err
	}
	if state.LastExtendedSlot, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return nil, err
	}
	if state.LastExtendedSlotStartIndex, err = decoder.ReadUint8(); err != nil {
		return nil, err
	}

	hasAuthority, err := decoder.ReadUint8()
	if err != nil {
		return nil, err
	}
	authorityBytes, err := decoder.ReadNBytes(32)
	if err != nil {
		return nil, err
	}
	if hasAuthority != 0 {
		authority := solana.PublicKeyFromBytes(authorityBytes)
		state.Authority = &authority
	}
	if _, err = decoder.ReadNBytes(2); err != nil {
		return nil, err
	}

	addressCount := (len(data) - tableHeaderLen) / 32
	state.Addresses = make(solana.PublicKeySlice, 0, addressCount)
	for i := 0; i < addressCount; i++ {
		addrBytes, err := decoder.ReadNBytes(32)
		if err != nil {
			return nil, err
		}
		state.Addresses = append(state.Addresses, solana.PublicKeyFromBytes(addrBytes))
	}

	return state, nil
}

// Active reports whether every address in the table is referenceable by a
// transaction processed at currentSlot. Addresses appended in slot N become
// usable once the cluster moves past N, so the table is ready when the
// current slot has advanced beyond the last create or extend.
func (s *TableState) Active(currentSlot uint64) bool {
	if s.DeactivationSlot != math.MaxUint64 {
		return false
	}
	return currentSlot > s.LastExtendedSlot
}
