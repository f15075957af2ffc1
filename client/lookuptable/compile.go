package lookuptable

import (
	"bytes"
	"math"
	"sort"

	sdkerrors "cosmossdk.io/errors"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// MaxTransactionSize is the packet ceiling the network enforces on a
// serialized transaction: 1280-byte IPv6 minimum MTU minus 40 bytes of IPv6
// header and 8 bytes of fragment header.
const MaxTransactionSize = 1232

// CompositeOperation is an ordered sequence of primitive instructions meant
// to land in a single envelope. Each instruction self-reports the account
// addresses it touches through the solana.Instruction interface, so the full
// referenced set is derived rather than hand-enumerated.
type CompositeOperation struct {
	Instructions []solana.Instruction
}

// ReferencedAddresses collects every address the operation's instructions
// touch, program IDs included, in first-reference order without duplicates.
// This is the set a lookup table must cover for the operation to compile
// with minimal inline addresses.
func (op *CompositeOperation) ReferencedAddresses() []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	out := make([]solana.PublicKey, 0, len(op.Instructions))
	add := func(key solana.PublicKey) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	for _, ix := range op.Instructions {
		add(ix.ProgramID())
		for _, meta := range ix.Accounts() {
			add(meta.PublicKey)
		}
	}

	return out
}

// CompileComposite builds the envelope for op against recentBlockhash.
// Addresses found in a supplied table are referenced as (table, index) pairs;
// signers, invoked programs and addresses in no table stay inline. Tables are
// applied in ascending key order and an address resolves through the first
// table holding it, so identical inputs always produce byte-identical output.
// The serialized size, including the signature slots the header requires,
// must fit the packet ceiling or the compile fails with ErrTooLarge.
func CompileComposite(
	op *CompositeOperation,
	tables map[solana.PublicKey]solana.PublicKeySlice,
	payer solana.PublicKey,
	recentBlockhash solana.Hash,
) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(op.Instructions, recentBlockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile transaction")
	}
	if len(tables) > 0 {
		applyLookups(&tx.Message, tables)
	}

	if err := verifyResolved(op, tx, tables); err != nil {
		return nil, err
	}
	if err := checkSize(tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// applyLookups rewrites a legacy message in place to reference tables for
// every eligible address. Signers and invoked programs must stay inline; any
// other static key found in a table is moved behind a (table, index) pair.
// Instruction account indexes are remapped against the combined key list the
// runtime loads: static keys, then writable table addresses, then readonly
// table addresses, each segment in lookup order. solana-go's own table option
// ranges over its table map and therefore emits lookups in random order; the
// sorted walk here is what makes the rewrite reproducible.
func applyLookups(msg *solana.Message, tables map[solana.PublicKey]solana.PublicKeySlice) {
	tableKeys := make([]solana.PublicKey, 0, len(tables))
	for key := range tables {
		tableKeys = append(tableKeys, key)
	}
	sort.Slice(tableKeys, func(i, j int) bool {
		return bytes.Compare(tableKeys[i][:], tableKeys[j][:]) < 0
	})

	invoked := make(map[solana.PublicKey]struct{}, len(msg.Instructions))
	for _, ix := range msg.Instructions {
		invoked[msg.AccountKeys[ix.ProgramIDIndex]] = struct{}{}
	}

	numSigners := int(msg.Header.NumRequiredSignatures)
	firstReadonly := len(msg.AccountKeys) - int(msg.Header.NumReadonlyUnsignedAccounts)

	writableIdx := make(map[solana.PublicKey][]uint8, len(tableKeys))
	readonlyIdx := make(map[solana.PublicKey][]uint8, len(tableKeys))
	statics := make([]solana.PublicKey, 0, len(msg.AccountKeys))
	numReadonlyStatic := 0

	for i, key := range msg.AccountKeys {
		table, idx := solana.PublicKey{}, -1
		if i >= numSigners {
			if _, ok := invoked[key]; !ok {
				table, idx = resolveThrough(tableKeys, tables, key)
			}
		}
		if idx < 0 {
			statics = append(statics, key)
			if i >= firstReadonly {
				numReadonlyStatic++
			}
			continue
		}
		if i < firstReadonly {
			writableIdx[table] = append(writableIdx[table], uint8(idx))
		} else {
			readonlyIdx[table] = append(readonlyIdx[table], uint8(idx))
		}
	}
	if len(writableIdx) == 0 && len(readonlyIdx) == 0 {
		return
	}

	lookups := make([]solana.MessageAddressTableLookup, 0, len(tableKeys))
	var loadedWritable, loadedReadonly []solana.PublicKey
	for _, tk := range tableKeys {
		w, r := writableIdx[tk], readonlyIdx[tk]
		if len(w) == 0 && len(r) == 0 {
			continue
		}
		lookups = append(lookups, solana.MessageAddressTableLookup{
			AccountKey:      tk,
			WritableIndexes: w,
			ReadonlyIndexes: r,
		})
		for _, idx := range w {
			loadedWritable = append(loadedWritable, tables[tk][idx])
		}
		for _, idx := range r {
			loadedReadonly = append(loadedReadonly, tables[tk][idx])
		}
	}

	combined := make([]solana.PublicKey, 0, len(statics)+len(loadedWritable)+len(loadedReadonly))
	combined = append(combined, statics...)
	combined = append(combined, loadedWritable...)
	combined = append(combined, loadedReadonly...)
	position := make(map[solana.PublicKey]uint16, len(combined))
	for i, key := range combined {
		if _, ok := position[key]; !ok {
			position[key] = uint16(i)
		}
	}

	oldKeys := msg.AccountKeys
	for i := range msg.Instructions {
		ix := &msg.Instructions[i]
		ix.ProgramIDIndex = position[oldKeys[ix.ProgramIDIndex]]
		for j, acc := range ix.Accounts {
			ix.Accounts[j] = position[oldKeys[acc]]
		}
	}

	msg.AccountKeys = statics
	msg.Header.NumReadonlyUnsignedAccounts = uint8(numReadonlyStatic)
	msg.AddressTableLookups = lookups
	msg.SetVersion(solana.MessageVersionV0)
}

// resolveThrough returns the first table, in sorted key order, holding key,
// with the address's first index inside that table. Indexes past the u8 wire
// limit cannot be referenced and are skipped.
func resolveThrough(
	tableKeys []solana.PublicKey,
	tables map[solana.PublicKey]solana.PublicKeySlice,
	key solana.PublicKey,
) (solana.PublicKey, int) {
	for _, tk := range tableKeys {
		for i, addr := range tables[tk] {
			if i > math.MaxUint8 {
				break
			}
			if addr.Equals(key) {
				return tk, i
			}
		}
	}
	return solana.PublicKey{}, -1
}

// CompileLegacy inlines every address. It exists for the size comparison
// against the table-referencing envelope; there is no automatic fallback
// between the two.
func CompileLegacy(op *CompositeOperation, payer solana.PublicKey, recentBlockhash solana.Hash) (*solana.Transaction, error) {
	return CompileComposite(op, nil, payer, recentBlockhash)
}

// SerializedSize returns the wire size of the envelope as it stands,
// signature slots included.
func SerializedSize(tx *solana.Transaction) (int, error) {
	bz, err := tx.MarshalBinary()
	if err != nil {
		return 0, errors.Wrap(err, "failed to serialize transaction")
	}
	return len(bz), nil
}

// verifyResolved confirms every address op references ended up either in the
// static account keys or behind a table index. Unreachable when the caller
// populated tables with the full referenced set; checked anyway since a miss
// means a coordination bug between planning and compilation.
func verifyResolved(
	op *CompositeOperation,
	tx *solana.Transaction,
	tables map[solana.PublicKey]solana.PublicKeySlice,
) error {
	resolved := make(map[solana.PublicKey]struct{}, len(tx.Message.AccountKeys))
	for _, key := range tx.Message.AccountKeys {
		resolved[key] = struct{}{}
	}
	for _, lookup := range tx.Message.AddressTableLookups {
		addresses := tables[lookup.AccountKey]
		for _, idx := range lookup.WritableIndexes {
			if int(idx) < len(addresses) {
				resolved[addresses[idx]] = struct{}{}
			}
		}
		for _, idx := range lookup.ReadonlyIndexes {
			if int(idx) < len(addresses) {
				resolved[addresses[idx]] = struct{}{}
			}
		}
	}

	for _, key := range op.ReferencedAddresses() {
		if _, ok := resolved[key]; !ok {
			return sdkerrors.Wrapf(ErrUnresolvedAddress, "account %s", key)
		}
	}

	return nil
}

func checkSize(tx *solana.Transaction) error {
	msgBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "failed to serialize message")
	}

	numSigners := int(tx.Message.Header.NumRequiredSignatures)
	size := compactU16Len(numSigners) + numSigners*64 + len(msgBytes)
	if size > MaxTransactionSize {
		return sdkerrors.Wrapf(ErrTooLarge, "%d bytes over the %d byte limit", size, MaxTransactionSize)
	}

	return nil
}

func compactU16Len(n int) int {
	switch {
	case n < 1<<7:
		return 1
	case n < 1<<14:
		return 2
	default:
		return 3
	}
}
