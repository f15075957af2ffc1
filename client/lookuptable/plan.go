package lookuptable

import (
	sdkerrors "cosmossdk.io/errors"
	"github.com/gagliardetto/solana-go"
)

// DefaultChunkSize is the largest number of addresses one extend submission
// carries. It keeps the extend transaction under the packet ceiling only
// because every address has the same 32-byte encoded width plus fixed
// instruction overhead; re-derive it before changing what a chunk carries.
const DefaultChunkSize = 15

// PlanBatches splits addresses into consecutive chunks of at most
// maxChunkSize, last chunk possibly shorter. Order is preserved and the
// chunks concatenate back to the input exactly. No deduplication is
// performed: a repeated address is appended again by whichever extend carries
// it, and the table wastes a slot.
func PlanBatches(addresses []solana.PublicKey, maxChunkSize int) ([][]solana.PublicKey, error) {
	if maxChunkSize <= 0 {
		return nil, sdkerrors.Wrapf(ErrInvalidArgument, "max chunk size must be positive, got %d", maxChunkSize)
	}

	chunks := make([][]solana.PublicKey, 0, (len(addresses)+maxChunkSize-1)/maxChunkSize)
	for start := 0; start < len(addresses); start += maxChunkSize {
		end := start + maxChunkSize
		if end > len(addresses) {
			end = len(addresses)
		}
		chunks = append(chunks, addresses[start:end])
	}

	return chunks, nil
}
