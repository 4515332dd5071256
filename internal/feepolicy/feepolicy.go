// Package feepolicy merges a simulation's resource fee with the caller's
// fee overrides into the base fee and envelope shape (plain vs fee-bump)
// a transaction is finally submitted with.
package feepolicy

import (
	"math"

	"github.com/pkg/errors"
)

// inclusionFeeFloor is the minimum inclusion fee accepted by the
// network, in stroops.
const inclusionFeeFloor int64 = 100

// feeBumpThreshold is the total fee (resource fee plus inclusion fee), in
// stroops, above which a plain v1 envelope can no longer carry the fee and
// must be wrapped in a fee-bump envelope instead (a v1 envelope's fee field
// is a uint32).
const feeBumpThreshold = math.MaxUint32

// ErrInclusionFeeBelowFloor is returned when the caller explicitly
// requests an inclusion fee below the network's 100-stroop floor.
var ErrInclusionFeeBelowFloor = errors.New("feepolicy: inclusion fee is below the 100 stroop floor")

// ErrInvalidResourceOverride is returned when a user-provided resource
// override is inconsistent with what simulation reports the transaction
// actually touches — e.g. a write-bytes override below the footprint's
// touched read-write entry sizes.
var ErrInvalidResourceOverride = errors.New("feepolicy: InvalidResourceOverride")

// Policy is the resolved fee and resource inputs for one transaction
// submission: the simulator's recommendation plus whatever the caller
// explicitly overrode.
type Policy struct {
	// ResourceFee is the resource fee suggested by simulation; a non-zero
	// ResourceFeeOverride is used in its place.
	ResourceFee int64
	// ResourceFeeOverride, when non-zero, replaces ResourceFee outright —
	// the one override the merge rules let the caller lower unboundedly,
	// since it comes straight from the caller rather than a simulated
	// recommendation.
	ResourceFeeOverride int64
	// InclusionFee is the caller's requested inclusion fee. Zero means
	// "use the network's default".
	InclusionFee int64
	// InclusionFeeIsLegacy records that InclusionFee arrived via the
	// deprecated `--fee` flag rather than `--inclusion-fee`.
	InclusionFeeIsLegacy bool

	// SimulatedInstructions, SimulatedReadBytes and SimulatedWriteBytes
	// are simulation's recommended resource budget, used both as the
	// resolved value when no override is given and as the floor a
	// shrinking override is validated against.
	SimulatedInstructions uint32
	SimulatedReadBytes    uint32
	SimulatedWriteBytes   uint32

	// InstructionsOverride, ReadBytesOverride and WriteBytesOverride, when
	// non-zero, replace the simulated budget field-by-field. Each must be
	// at least the simulated value — a smaller override would leave the
	// transaction unable to touch the footprint simulation reported.
	InstructionsOverride uint32
	ReadBytesOverride    uint32
	WriteBytesOverride   uint32

	// FeeBumpSource, when set, is the account that pays a fee-bump
	// envelope's fee if one is needed. Empty means the inner transaction's
	// own source account pays it.
	FeeBumpSource string
}

// Resolved is the fee policy's decision.
type Resolved struct {
	// BaseFee is the fee to pass to the transaction builder.
	BaseFee int64
	// NeedsFeeBump is true when BaseFee exceeds what a plain v1 envelope
	// can carry and the transaction must be wrapped in a fee-bump
	// envelope instead.
	NeedsFeeBump bool
	// FeeBumpSource is the resolved fee source for a fee-bump wrap: the
	// caller's explicit override, or empty meaning "use the inner
	// transaction's own source account".
	FeeBumpSource string
	// Warning is a deprecation notice to surface to the user, if any.
	Warning string

	// Instructions, ReadBytes and WriteBytes are the resolved resource
	// budget to attach to the transaction's SorobanResources.
	Instructions uint32
	ReadBytes    uint32
	WriteBytes   uint32
}

// Resolve merges a simulation's resource fee and resource budget with the
// caller's overrides. It takes a single InclusionFee; choosing between the
// `--inclusion-fee` and legacy `--fee` values is left to the caller, and
// InclusionFeeIsLegacy only adds the deprecation warning. An inclusion fee explicitly set below the
// network floor, or a resource override inconsistent with what simulation
// reports the transaction touches, is rejected rather than silently
// clamped.
func Resolve(p Policy) (Resolved, error) {
	inclusion := p.InclusionFee
	switch {
	case inclusion == 0:
		inclusion = inclusionFeeFloor
	case inclusion < inclusionFeeFloor:
		return Resolved{}, ErrInclusionFeeBelowFloor
	}

	resourceFee := p.ResourceFee
	if p.ResourceFeeOverride != 0 {
		resourceFee = p.ResourceFeeOverride
	}

	instructions, err := mergeResourceOverride(p.SimulatedInstructions, p.InstructionsOverride)
	if err != nil {
		return Resolved{}, err
	}
	readBytes, err := mergeResourceOverride(p.SimulatedReadBytes, p.ReadBytesOverride)
	if err != nil {
		return Resolved{}, err
	}
	writeBytes, err := mergeResourceOverride(p.SimulatedWriteBytes, p.WriteBytesOverride)
	if err != nil {
		return Resolved{}, err
	}

	var warning string
	if p.InclusionFeeIsLegacy {
		warning = "the --fee flag is deprecated, use --inclusion-fee instead"
	}

	base := resourceFee + inclusion
	return Resolved{
		BaseFee:       base,
		NeedsFeeBump:  base > feeBumpThreshold,
		FeeBumpSource: p.FeeBumpSource,
		Warning:       warning,
		Instructions:  instructions,
		ReadBytes:     readBytes,
		WriteBytes:    writeBytes,
	}, nil
}

// mergeResourceOverride applies a single §4.5 resource field's merge rule:
// a zero override means "use the simulated value unchanged"; a non-zero
// override below the simulated value is rejected, since it would leave the
// transaction unable to touch the footprint simulation already reported.
func mergeResourceOverride(simulated, override uint32) (uint32, error) {
	if override == 0 {
		return simulated, nil
	}
	if override < simulated {
		return 0, ErrInvalidResourceOverride
	}
	return override, nil
}
