// Package sim provides the Markov-chain engine that synthesizes CAM traces.
//
// # Reading Guide
//
// Start with these files:
//   - model.go: transition matrix, state PDF and the prefix index used for row matching
//   - sampler.go: cumulative-distribution inversion shared by every draw
//   - generator.go: the walk, its decoding and its duration/length termination
//
// # Architecture
//
// The sim package holds pure data types and the generation loop; I/O lives in
// sub-packages:
//   - sim/model/: loads pretrained model artifacts (CSV) by scenario, profile, mode and order
//   - sim/trace/: writes and reads CAM trace files, computes trace statistics
//   - sim/fleet/: generates many vehicles, optionally in parallel, with isolated RNG streams
//
// Symbols decode per GenerationMode: interval classes (ModeIntervals), size classes
// (ModeSizes) or joint (size, interval) classes (ModeComplete), with sizes taken from
// the manufacturer Profile.
package sim
