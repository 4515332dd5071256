package feepolicy_test

import (
	"math"
	"testing"

	"github.com/halide-labs/sorobanctl/internal/feepolicy"
)

func TestResolveDefaultsToFloor(t *testing.T) {
	r, err := feepolicy.Resolve(feepolicy.Policy{ResourceFee: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if r.BaseFee != 1100 {
		t.Fatalf("expected base fee 1100, got %d", r.BaseFee)
	}
	if r.NeedsFeeBump {
		t.Fatal("did not expect a fee bump for a small fee")
	}
}

func TestResolveHonorsOverride(t *testing.T) {
	r, err := feepolicy.Resolve(feepolicy.Policy{ResourceFee: 1000, InclusionFee: 5000})
	if err != nil {
		t.Fatal(err)
	}
	if r.BaseFee != 6000 {
		t.Fatalf("expected base fee 6000, got %d", r.BaseFee)
	}
}

func TestResolveLegacyFeeWarns(t *testing.T) {
	r, err := feepolicy.Resolve(feepolicy.Policy{ResourceFee: 1000, InclusionFee: 200, InclusionFeeIsLegacy: true})
	if err != nil {
		t.Fatal(err)
	}
	if r.Warning == "" {
		t.Fatal("expected a deprecation warning when the legacy flag is used")
	}
}

func TestResolveNeedsFeeBumpAboveThreshold(t *testing.T) {
	r, err := feepolicy.Resolve(feepolicy.Policy{ResourceFee: math.MaxUint32, InclusionFee: math.MaxUint32})
	if err != nil {
		t.Fatal(err)
	}
	if !r.NeedsFeeBump {
		t.Fatal("expected a fee bump when the combined fee exceeds a uint32")
	}
}

func TestResolveFeeBumpSourceDefaultsEmpty(t *testing.T) {
	r, err := feepolicy.Resolve(feepolicy.Policy{ResourceFee: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if r.FeeBumpSource != "" {
		t.Fatalf("expected no explicit fee-bump source, got %q", r.FeeBumpSource)
	}
}

func TestResolveFeeBumpSourceOverride(t *testing.T) {
	r, err := feepolicy.Resolve(feepolicy.Policy{ResourceFee: 1000, FeeBumpSource: "GABC"})
	if err != nil {
		t.Fatal(err)
	}
	if r.FeeBumpSource != "GABC" {
		t.Fatalf("expected explicit fee-bump source to pass through, got %q", r.FeeBumpSource)
	}
}

func TestResolveRejectsInclusionFeeBelowFloor(t *testing.T) {
	_, err := feepolicy.Resolve(feepolicy.Policy{ResourceFee: 1000, InclusionFee: 50})
	if err != feepolicy.ErrInclusionFeeBelowFloor {
		t.Fatalf("expected ErrInclusionFeeBelowFloor, got %v", err)
	}
}

func TestResolveResourceFeeOverrideReplacesSimulated(t *testing.T) {
	r, err := feepolicy.Resolve(feepolicy.Policy{ResourceFee: 1000, ResourceFeeOverride: 1})
	if err != nil {
		t.Fatal(err)
	}
	if r.BaseFee != 101 {
		t.Fatalf("expected the resource-fee override to replace the simulated fee, got base fee %d", r.BaseFee)
	}
}

func TestResolveUsesSimulatedResourcesWithoutOverride(t *testing.T) {
	r, err := feepolicy.Resolve(feepolicy.Policy{
		ResourceFee:           1000,
		SimulatedInstructions: 100,
		SimulatedReadBytes:    200,
		SimulatedWriteBytes:   300,
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Instructions != 100 || r.ReadBytes != 200 || r.WriteBytes != 300 {
		t.Fatalf("expected the simulated budget unchanged, got %+v", r)
	}
}

func TestResolveResourceOverrideAboveSimulatedWins(t *testing.T) {
	r, err := feepolicy.Resolve(feepolicy.Policy{
		ResourceFee:         1000,
		SimulatedWriteBytes: 300,
		WriteBytesOverride:  500,
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.WriteBytes != 500 {
		t.Fatalf("expected the override to win, got %d", r.WriteBytes)
	}
}

func TestResolveRejectsWriteBytesOverrideBelowFootprint(t *testing.T) {
	_, err := feepolicy.Resolve(feepolicy.Policy{
		ResourceFee:         1000,
		SimulatedWriteBytes: 300,
		WriteBytesOverride:  100,
	})
	if err != feepolicy.ErrInvalidResourceOverride {
		t.Fatalf("expected ErrInvalidResourceOverride, got %v", err)
	}
}

func TestResolveRejectsInstructionsOverrideBelowSimulated(t *testing.T) {
	_, err := feepolicy.Resolve(feepolicy.Policy{
		ResourceFee:           1000,
		SimulatedInstructions: 1000,
		InstructionsOverride:  10,
	})
	if err != feepolicy.ErrInvalidResourceOverride {
		t.Fatalf("expected ErrInvalidResourceOverride, got %v", err)
	}
}

func TestResolveRejectsReadBytesOverrideBelowSimulated(t *testing.T) {
	_, err := feepolicy.Resolve(feepolicy.Policy{
		ResourceFee:        1000,
		SimulatedReadBytes: 1000,
		ReadBytesOverride:  10,
	})
	if err != feepolicy.ErrInvalidResourceOverride {
		t.Fatalf("expected ErrInvalidResourceOverride, got %v", err)
	}
}
