package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// Source is the random draw handle threaded through sampling.
// *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a uniform draw in [0, 1).
	Float64() float64
}

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible generation run.
// Two runs with the same SimulationKey, model and configuration
// MUST produce bit-for-bit identical traces.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// SubsystemVehicle returns the subsystem name for vehicle N.
func SubsystemVehicle(id int) string {
	return fmt.Sprintf("vehicle_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName). Derivation is
// order-independent, so vehicle traces do not depend on the order (or the
// goroutine) in which vehicles are generated.
//
// Thread-safety: NOT thread-safe. Derive every stream from a single goroutine,
// then hand each *rand.Rand to exactly one worker.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.key.DeriveSeed(name)))
	p.subsystems[name] = rng
	return rng
}

// DeriveSeed returns the seed of the named subsystem: key XOR fnv1a64(name).
// Other generator backends use it to seed their per-subsystem streams.
func (k SimulationKey) DeriveSeed(name string) int64 {
	return int64(k) ^ fnv1a64(name)
}

// ForVehicle is shorthand for ForSubsystem(SubsystemVehicle(id)).
func (p *PartitionedRNG) ForVehicle(id int) *rand.Rand {
	return p.ForSubsystem(SubsystemVehicle(id))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
