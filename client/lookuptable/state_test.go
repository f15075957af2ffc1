package lookuptable

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func buildTableAccountData(deactivationSlot, lastExtendedSlot uint64, authority *solana.PublicKey, addresses []solana.PublicKey) []byte {
	data := make([]byte, 0, tableHeaderLen+32*len(addresses))
	data = binary.LittleEndian.AppendUint32(data, tableStateInitialized)
	data = binary.LittleEndian.AppendUint64(data, deactivationSlot)
	data = binary.LittleEndian.AppendUint64(data, lastExtendedSlot)
	data = append(data, 0) // last extended slot start index
	if authority != nil {
		data = append(data, 1)
		data = append(data, authority[:]...)
	} else {
		data = append(data, 0)
		data = append(data, make([]byte, 32)...)
	}
	data = append(data, 0, 0) // padding
	for _, addr := range addresses {
		data = append(data, addr[:]...)
	}
	return data
}

func TestDecodeTableState(t *testing.T) {
	authority := makeAddresses(1)[0]
	addresses := makeAddresses(17)

	state, err := DecodeTableState(buildTableAccountData(math.MaxUint64, 1234, &authority, addresses))
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), state.DeactivationSlot)
	require.Equal(t, uint64(1234), state.LastExtendedSlot)
	require.NotNil(t, state.Authority)
	require.Equal(t, authority, *state.Authority)
	require.Equal(t, solana.PublicKeySlice(addresses), state.Addresses)
}

func TestDecodeTableStateNoAuthority(t *testing.T) {
	state, err := DecodeTableState(buildTableAccountData(math.MaxUint64, 0, nil, nil))
	require.NoError(t, err)
	require.Nil(t, state.Authority)
	require.Empty(t, state.Addresses)
}

func TestDecodeTableStateMalformed(t *testing.T) {
	_, err := DecodeTableState(make([]byte, tableHeaderLen-1))
	require.ErrorIs(t, err, ErrTableUnavailable)

	_, err = DecodeTableState(make([]byte, tableHeaderLen+31))
	require.ErrorIs(t, err, ErrTableUnavailable)

	// zero discriminator marks an uninitialized account
	_, err = DecodeTableState(make([]byte, tableHeaderLen))
	require.ErrorIs(t, err, ErrTableUnavailable)
}

func TestTableStateActive(t *testing.T) {
	state := &TableState{
		DeactivationSlot: math.MaxUint64,
		LastExtendedSlot: 500,
	}
	require.False(t, state.Active(499))
	require.False(t, state.Active(500))
	require.True(t, state.Active(501))

	deactivated := &TableState{
		DeactivationSlot: 600,
		LastExtendedSlot: 500,
	}
	require.False(t, deactivated.Active(501))
}
