package lookuptable

import (
	"context"
	"fmt"
	"time"

	sdkerrors "cosmossdk.io/errors"
	log "github.com/InjectiveLabs/suplog"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	sendandconfirm "github.com/gagliardetto/solana-go/rpc/sendAndConfirmTransaction"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/pkg/errors"
)

const (
	defaultCommitment     = rpc.CommitmentConfirmed
	defaultActivationPoll = 400 * time.Millisecond
)

// Signer resolves the private key for a public key while signing. It is an
// alias so values pass straight through to solana-go's Transaction.Sign. The
// client never holds key material itself.
type Signer = func(key solana.PublicKey) *solana.PrivateKey

type ClientOption func(c *Client)

func OptionCommitment(commitment rpc.CommitmentType) ClientOption {
	return func(c *Client) {
		c.commitment = commitment
	}
}

func OptionActivationPollInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.activationPoll = interval
	}
}

// Client creates, populates and activates lookup tables owned by a single
// authority. Every submission blocks until confirmed before the next one
// goes out: the program authenticates each extend against the table's latest
// confirmed state, so concurrent submissions risk rejection as stale.
type Client struct {
	rpcClient *rpc.Client
	wsClient  *ws.Client
	logger    log.Logger

	authority solana.PublicKey
	payer     solana.PublicKey
	signer    Signer

	commitment     rpc.CommitmentType
	activationPoll time.Duration

	// submit is c.sendAndConfirm; tests swap it to fault-inject submissions.
	submit func(ctx context.Context, ixs ...solana.Instruction) error
}

func NewClient(
	rpcClient *rpc.Client,
	wsClient *ws.Client,
	authority solana.PublicKey,
	payer solana.PublicKey,
	signer Signer,
	options ...ClientOption,
) *Client {
	c := &Client{
		rpcClient: rpcClient,
		wsClient:  wsClient,
		logger: log.WithFields(log.Fields{
			"module": "luts",
			"svc":    "lookupTableClient",
		}),
		authority:      authority,
		payer:          payer,
		signer:         signer,
		commitment:     defaultCommitment,
		activationPoll: defaultActivationPoll,
	}
	c.submit = c.sendAndConfirm
	for _, opt := range options {
		opt(c)
	}

	return c
}

// CreateTable derives and creates an empty table owned by the client's
// authority at recentSlot, blocking until the submission is confirmed.
// recentSlot must be recent enough for the program to accept the derivation.
func (c *Client) CreateTable(ctx context.Context, recentSlot uint64) (solana.PublicKey, error) {
	table, bumpSeed, err := DeriveLookupTableAddress(c.authority, recentSlot)
	if err != nil {
		return solana.PublicKey{}, errors.Wrap(err, "failed to derive lookup table address")
	}

	ix := NewCreateLookupTableInstruction(table, c.authority, c.payer, recentSlot, bumpSeed)
	if err := c.submit(ctx, ix); err != nil {
		return solana.PublicKey{}, err
	}

	c.logger.WithFields(log.Fields{
		"table":      table.String(),
		"recentSlot": recentSlot,
	}).Infoln("lookup table created")
	return table, nil
}

// ExtendError reports the first extension batch that did not land. Chunks
// before FirstUnapplied are confirmed on chain and the table remains valid;
// resume by re-invoking ExtendTable with chunks[FirstUnapplied:]. Never
// re-submit confirmed chunks: the table is append-only and duplicates waste
// its capacity.
type ExtendError struct {
	Table          solana.PublicKey
	FirstUnapplied int
	Err            error
}

func (e *ExtendError) Error() string {
	return fmt.Sprintf("extend lookup table %s: chunk %d not applied: %v", e.Table, e.FirstUnapplied, e.Err)
}

func (e *ExtendError) Unwrap() error {
	return e.Err
}

// ExtendTable appends each chunk to the table with one confirmed submission
// per chunk, strictly in order. Chunks typically come from PlanBatches. No
// automatic retry is performed; a failure surfaces as *ExtendError with
// enough information to resume.
func (c *Client) ExtendTable(ctx context.Context, table solana.PublicKey, chunks [][]solana.PublicKey) error {
	for i, chunk := range chunks {
		if len(chunk) == 0 {
			return &ExtendError{
				Table:          table,
				FirstUnapplied: i,
				Err:            sdkerrors.Wrap(ErrInvalidArgument, "empty chunk"),
			}
		}

		ix := NewExtendLookupTableInstruction(table, c.authority, c.payer, chunk)
		if err := c.submit(ctx, ix); err != nil {
			return &ExtendError{
				Table:          table,
				FirstUnapplied: i,
				Err:            err,
			}
		}

		c.logger.WithFields(log.Fields{
			"table":     table.String(),
			"chunk":     i,
			"addresses": len(chunk),
		}).Debugln("lookup table extended")
	}

	return nil
}

// AwaitActivation polls the table until the cluster reports it usable: the
// current slot must move past the slot of the last create or extend. A fixed
// sleep is not trusted here since slot timing drifts under congestion; the
// wait is bounded by ctx and surfaces ErrTimeout at the deadline.
func (c *Client) AwaitActivation(ctx context.Context, table solana.PublicKey) (*TableState, error) {
	ticker := time.NewTicker(c.activationPoll)
	defer ticker.Stop()

	for {
		state, err := c.GetTable(ctx, table)
		if err != nil {
			return nil, err
		}

		slot, err := c.rpcClient.GetSlot(ctx, c.commitment)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get current slot")
		}

		if state.Active(slot) {
			c.logger.WithFields(log.Fields{
				"table":     table.String(),
				"slot":      slot,
				"addresses": len(state.Addresses),
			}).Infoln("lookup table active")
			return state, nil
		}

		select {
		case <-ctx.Done():
			return nil, sdkerrors.Wrapf(ErrTimeout, "table %s not active before deadline", table)
		case <-ticker.C:
		}
	}
}

// GetTable fetches and decodes the table account. A missing account after a
// confirmed CreateTable is evidence of a coordination bug, so it surfaces as
// ErrTableUnavailable rather than being swallowed.
func (c *Client) GetTable(ctx context.Context, table solana.PublicKey) (*TableState, error) {
	res, err := c.rpcClient.GetAccountInfoWithOpts(ctx, table, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, sdkerrors.Wrapf(ErrTableUnavailable, "no account at %s", table)
		}
		return nil, errors.Wrap(err, "failed to fetch lookup table account")
	}

	return DecodeTableState(res.Value.Data.GetBinary())
}

func (c *Client) sendAndConfirm(ctx context.Context, ixs ...solana.Instruction) error {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return errors.Wrap(err, "failed to get latest blockhash")
	}

	tx, err := solana.NewTransaction(
		ixs,
		recent.Value.Blockhash,
		solana.TransactionPayer(c.payer),
	)
	if err != nil {
		return errors.Wrap(err, "failed to build transaction")
	}
	if _, err = tx.Sign(c.signer); err != nil {
		return errors.Wrap(err, "failed to sign transaction")
	}

	if _, err = sendandconfirm.SendAndConfirmTransaction(ctx, c.rpcClient, c.wsClient, tx); err != nil {
		if ctx.Err() != nil {
			return sdkerrors.Wrap(ErrTimeout, err.Error())
		}
		return sdkerrors.Wrap(ErrNetworkRejected, err.Error())
	}

	return nil
}
