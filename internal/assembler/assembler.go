// Package assembler turns a draft set of operations into an assembled,
// fee-resolved transaction: it simulates, grafts recorded authorization
// entries, applies the fee policy, and — when simulation reports a ledger
// entry needing a time-to-live restore — submits and awaits that restore
// before reassembling the final transaction.
package assembler

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/halide-labs/sorobanctl/internal/feepolicy"
)

// SimulateOperationResult mirrors one entry of a simulateTransaction RPC
// response's "results" array.
type SimulateOperationResult struct {
	XDR  string
	Auth []string
}

// RestorePreamble mirrors the "restorePreamble" field of a simulate
// response: present when an entry the transaction touches has expired and
// must be restored before the transaction itself can run.
type RestorePreamble struct {
	MinResourceFee  int64
	TransactionData string
}

// SimulateResult is the subset of a simulateTransaction response the
// assembler needs to graft authorization and resolve fees.
type SimulateResult struct {
	Error           string
	TransactionData string
	MinResourceFee  int64
	Results         []SimulateOperationResult
	RestorePreamble *RestorePreamble
	// Events carries the base64 XDR diagnostic events simulate reported
	// alongside a failure, for the caller to feed to an error resolver.
	Events []string
}

// SimulateFunc runs simulateTransaction against a draft transaction.
type SimulateFunc func(ctx context.Context, tx *txnbuild.Transaction) (*SimulateResult, error)

// RestoreFunc builds, signs, sends, and awaits a terminal status for a
// RestoreFootprint operation carrying sorobanData, against the same source
// account and fee policy as the transaction being assembled. The caller's
// pipeline owns signing and the submit/poll loop; the assembler only knows
// it must not proceed until this returns.
type RestoreFunc func(ctx context.Context, source txnbuild.Account, sorobanData xdr.SorobanTransactionData, baseFee int64) error

// SimulationError reports simulate returning a structured failure; the
// message is surfaced verbatim per the error-handling contract.
type SimulationError struct {
	Message string
	Events  []string
}

func (e *SimulationError) Error() string {
	return "assembler: simulation failed: " + e.Message
}

// Request describes one draft transaction to assemble.
type Request struct {
	Source       txnbuild.Account
	Operations   []txnbuild.Operation
	TimeBounds   txnbuild.TimeBounds
	InclusionFee int64
	LegacyFee    bool

	// ResourceFeeOverride, InstructionsOverride, ReadBytesOverride and
	// WriteBytesOverride are the user's explicit §4.5 resource overrides;
	// zero means "use simulation's recommendation unchanged".
	ResourceFeeOverride  int64
	InstructionsOverride uint32
	ReadBytesOverride    uint32
	WriteBytesOverride   uint32

	// FeeBumpSource, when set, pays a fee-bump envelope's fee if one is
	// needed; empty means the inner transaction's own source account pays
	// it.
	FeeBumpSource string
}

// Assembled is the result of a successful Assemble call.
type Assembled struct {
	// Transaction is the inner v1 envelope, built with a safe fee that
	// always fits a uint32 regardless of NeedsFeeBump — the caller signs
	// this, then wraps it in a fee-bump envelope when NeedsFeeBump is set.
	Transaction *txnbuild.Transaction
	// NeedsFeeBump is true when the resolved fee exceeds what a plain v1
	// envelope's fee field can carry.
	NeedsFeeBump bool
	// FeeBumpBaseFee is the real resolved base fee to give the fee-bump
	// wrapper when NeedsFeeBump is true.
	FeeBumpBaseFee int64
	// FeeBumpSource is the resolved fee-bump fee source: the caller's
	// override, or empty meaning "use the inner transaction's source
	// account".
	FeeBumpSource string
	FeeWarning    string
}

// Assembler holds the collaborators needed to turn Requests into Assembled
// transactions: a way to simulate and, when necessary, a way to submit a
// restore transaction.
type Assembler struct {
	Simulate          SimulateFunc
	Restore           RestoreFunc
	NetworkPassphrase string

	mu        sync.Mutex
	sequences map[string]int64
}

// New returns an Assembler. Restore may be nil if the caller never expects
// to assemble transactions touching archived entries.
func New(simulate SimulateFunc, restore RestoreFunc, networkPassphrase string) *Assembler {
	return &Assembler{
		Simulate:          simulate,
		Restore:           restore,
		NetworkPassphrase: networkPassphrase,
		sequences:         make(map[string]int64),
	}
}

// primeSequence caches the source account's sequence number for the
// duration of this Assembler's lifetime (one run), so a multi-operation
// pipeline issuing several transactions against the same source does not
// refetch it.
func (a *Assembler) primeSequence(source txnbuild.Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := source.GetAccountID()
	if _, ok := a.sequences[id]; ok {
		return nil
	}
	seq, err := source.GetSequenceNumber()
	if err != nil {
		return errors.Wrap(err, "assembler: reading source sequence number")
	}
	a.sequences[id] = seq
	return nil
}

// Assemble runs the §4.6 algorithm: build a zero-stub draft, simulate,
// restore-if-needed and re-simulate, graft recorded auth, and resolve fees.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*Assembled, error) {
	if err := a.primeSequence(req.Source); err != nil {
		return nil, err
	}

	res, err := a.simulateDraft(ctx, req)
	if err != nil {
		return nil, err
	}

	if res.RestorePreamble != nil {
		if a.Restore == nil {
			return nil, errors.New("assembler: transaction needs a restore but no restore submitter was configured")
		}
		var restoreData xdr.SorobanTransactionData
		if err := xdr.SafeUnmarshalBase64(res.RestorePreamble.TransactionData, &restoreData); err != nil {
			return nil, errors.Wrap(err, "assembler: decoding restore preamble transaction data")
		}
		restoreFee, err := feepolicy.Resolve(feepolicy.Policy{
			ResourceFee:          res.RestorePreamble.MinResourceFee,
			InclusionFee:         req.InclusionFee,
			InclusionFeeIsLegacy: req.LegacyFee,
		})
		if err != nil {
			return nil, err
		}
		if err := a.Restore(ctx, req.Source, restoreData, restoreFee.BaseFee); err != nil {
			return nil, errors.Wrap(err, "assembler: submitting restore transaction")
		}

		res, err = a.simulateDraft(ctx, req)
		if err != nil {
			return nil, err
		}
		if res.RestorePreamble != nil {
			return nil, errors.New("assembler: transaction still needs a restore after submitting one")
		}
	}

	if res.Error != "" {
		return nil, &SimulationError{Message: res.Error, Events: res.Events}
	}

	if err := graftAuth(req.Operations, res.Results); err != nil {
		return nil, err
	}

	var sorobanData xdr.SorobanTransactionData
	if err := xdr.SafeUnmarshalBase64(res.TransactionData, &sorobanData); err != nil {
		return nil, errors.Wrap(err, "assembler: decoding transaction data")
	}

	resolved, err := feepolicy.Resolve(feepolicy.Policy{
		ResourceFee:           res.MinResourceFee,
		ResourceFeeOverride:   req.ResourceFeeOverride,
		InclusionFee:          req.InclusionFee,
		InclusionFeeIsLegacy:  req.LegacyFee,
		SimulatedInstructions: uint32(sorobanData.Resources.Instructions),
		SimulatedReadBytes:    uint32(sorobanData.Resources.ReadBytes),
		SimulatedWriteBytes:   uint32(sorobanData.Resources.WriteBytes),
		InstructionsOverride:  req.InstructionsOverride,
		ReadBytesOverride:     req.ReadBytesOverride,
		WriteBytesOverride:    req.WriteBytesOverride,
		FeeBumpSource:         req.FeeBumpSource,
	})
	if err != nil {
		return nil, err
	}

	sorobanData.Resources.Instructions = xdr.Uint32(resolved.Instructions)
	sorobanData.Resources.ReadBytes = xdr.Uint32(resolved.ReadBytes)
	sorobanData.Resources.WriteBytes = xdr.Uint32(resolved.WriteBytes)
	attachSorobanData(req.Operations, sorobanData)

	// The inner envelope always gets a fee that fits a v1 envelope's
	// uint32 fee field; when the resolved fee doesn't fit, the caller
	// wraps this transaction in a fee-bump envelope carrying the real
	// fee instead (a fee-bump's fee field is a wider int64).
	innerBaseFee := resolved.BaseFee
	if resolved.NeedsFeeBump {
		innerBaseFee = txnbuild.MinBaseFee
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        req.Source,
		Operations:           req.Operations,
		Preconditions:        txnbuild.Preconditions{TimeBounds: req.TimeBounds},
		BaseFee:              innerBaseFee,
		IncrementSequenceNum: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "assembler: building final transaction")
	}

	return &Assembled{
		Transaction:    tx,
		NeedsFeeBump:   resolved.NeedsFeeBump,
		FeeBumpBaseFee: resolved.BaseFee,
		FeeBumpSource:  resolved.FeeBumpSource,
		FeeWarning:     resolved.Warning,
	}, nil
}

// simulateDraft builds the zero-resource-stub draft (no sequence increment,
// so repeated simulate calls during the same Assemble don't burn sequence
// numbers) and runs Simulate against it.
func (a *Assembler) simulateDraft(ctx context.Context, req Request) (*SimulateResult, error) {
	attachSorobanData(req.Operations, xdr.SorobanTransactionData{})
	draft, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        req.Source,
		Operations:           req.Operations,
		Preconditions:        txnbuild.Preconditions{TimeBounds: req.TimeBounds},
		BaseFee:              txnbuild.MinBaseFee,
		IncrementSequenceNum: false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "assembler: building simulation draft")
	}
	res, err := a.Simulate(ctx, draft)
	if err != nil {
		return nil, errors.Wrap(err, "assembler: simulating transaction")
	}
	return res, nil
}

// graftAuth appends simulate's recorded authorization entries onto the sole
// InvokeHostFunction operation's existing auth list, preserving order and
// performing no deduplication, per the assembler's ordering guarantee.
func graftAuth(operations []txnbuild.Operation, results []SimulateOperationResult) error {
	for i, op := range operations {
		invoke, ok := op.(*txnbuild.InvokeHostFunction)
		if !ok {
			continue
		}
		if i >= len(results) {
			continue
		}
		for _, authXDR := range results[i].Auth {
			var entry xdr.SorobanAuthorizationEntry
			if err := xdr.SafeUnmarshalBase64(authXDR, &entry); err != nil {
				return errors.Wrap(err, "assembler: decoding recorded authorization entry")
			}
			invoke.Auth = append(invoke.Auth, entry)
		}
	}
	return nil
}

// attachSorobanData writes the resolved resource data onto whichever
// operation type carries an Ext field (InvokeHostFunction or
// RestoreFootprint); mirrors the teacher's SorobanData builder method.
func attachSorobanData(operations []txnbuild.Operation, data xdr.SorobanTransactionData) {
	for _, op := range operations {
		switch o := op.(type) {
		case *txnbuild.InvokeHostFunction:
			o.Ext = xdr.TransactionExt{V: 1, SorobanData: &data}
		case *txnbuild.RestoreFootprint:
			o.Ext = xdr.TransactionExt{V: 1, SorobanData: &data}
		case *txnbuild.ExtendFootprintTtl:
			o.Ext = xdr.TransactionExt{V: 1, SorobanData: &data}
		}
	}
}
