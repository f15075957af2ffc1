package lookuptable

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestDeriveLookupTableAddress(t *testing.T) {
	authority := makeAddresses(1)[0]

	table1, bump1, err := DeriveLookupTableAddress(authority, 100)
	require.NoError(t, err)
	table2, bump2, err := DeriveLookupTableAddress(authority, 100)
	require.NoError(t, err)
	require.Equal(t, table1, table2)
	require.Equal(t, bump1, bump2)

	table3, _, err := DeriveLookupTableAddress(authority, 101)
	require.NoError(t, err)
	require.NotEqual(t, table1, table3)
}

func TestCreateLookupTableInstruction(t *testing.T) {
	addrs := makeAddresses(3)
	table, authority, payer := addrs[0], addrs[1], addrs[2]

	ix := NewCreateLookupTableInstruction(table, authority, payer, 0x0102030405060708, 0xfe)
	require.Equal(t, AddressLookupTableProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, []byte{
		0, 0, 0, 0,
		8, 7, 6, 5, 4, 3, 2, 1,
		0xfe,
	}, data)

	metas := ix.Accounts()
	require.Len(t, metas, 4)
	require.Equal(t, table, metas[0].PublicKey)
	require.True(t, metas[0].IsWritable)
	require.False(t, metas[0].IsSigner)
	require.Equal(t, authority, metas[1].PublicKey)
	require.False(t, metas[1].IsSigner)
	require.Equal(t, payer, metas[2].PublicKey)
	require.True(t, metas[2].IsSigner)
	require.True(t, metas[2].IsWritable)
	require.Equal(t, solana.SystemProgramID, metas[3].PublicKey)
}

func TestExtendLookupTableInstruction(t *testing.T) {
	addrs := makeAddresses(5)
	table, authority, payer := addrs[0], addrs[1], addrs[2]
	appended := addrs[3:5]

	ix := NewExtendLookupTableInstruction(table, authority, payer, appended)
	data, err := ix.Data()
	require.NoError(t, err)

	expected := []byte{
		2, 0, 0, 0,
		2, 0, 0, 0, 0, 0, 0, 0,
	}
	expected = append(expected, appended[0][:]...)
	expected = append(expected, appended[1][:]...)
	require.Equal(t, expected, data)

	metas := ix.Accounts()
	require.Len(t, metas, 4)
	require.Equal(t, table, metas[0].PublicKey)
	require.True(t, metas[0].IsWritable)
	require.Equal(t, authority, metas[1].PublicKey)
	require.True(t, metas[1].IsSigner)
	require.Equal(t, payer, metas[2].PublicKey)
	require.True(t, metas[2].IsSigner)
}

func TestDeactivateAndCloseInstructions(t *testing.T) {
	addrs := makeAddresses(3)
	table, authority, recipient := addrs[0], addrs[1], addrs[2]

	deactivate := NewDeactivateLookupTableInstruction(table, authority)
	data, err := deactivate.Data()
	require.NoError(t, err)
	require.Equal(t, []byte{3, 0, 0, 0}, data)
	require.Len(t, deactivate.Accounts(), 2)

	closeIx := NewCloseLookupTableInstruction(table, authority, recipient)
	data, err = closeIx.Data()
	require.NoError(t, err)
	require.Equal(t, []byte{4, 0, 0, 0}, data)

	metas := closeIx.Accounts()
	require.Len(t, metas, 3)
	require.Equal(t, recipient, metas[2].PublicKey)
	require.True(t, metas[2].IsWritable)
}

func TestFreezeLookupTableInstruction(t *testing.T) {
	addrs := makeAddresses(2)

	ix := NewFreezeLookupTableInstruction(addrs[0], addrs[1])
	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0}, data)

	metas := ix.Accounts()
	require.Len(t, metas, 2)
	require.True(t, metas[1].IsSigner)
}
