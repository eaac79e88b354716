// Package seed derives per-stage deterministic execution contexts from a
// run's base seed.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// ExecutionContext carries the deterministic identity of one stage
// invocation within a pipeline run.
type ExecutionContext struct {
	RunID        string
	BaseSeed     uint64
	StageIndex   int
	FixIteration int
	Flags        map[string]bool
}

// Derive builds the context for the initial invocation of a stage.
func Derive(runID string, baseSeed uint64, stageIndex int, flags map[string]bool) ExecutionContext {
	return ExecutionContext{
		RunID:      runID,
		BaseSeed:   baseSeed,
		StageIndex: stageIndex,
		Flags:      flags,
	}
}

// DeriveFix builds the context for a fix-loop re-invocation of a stage.
// The fix iteration participates in seed derivation so repairs are
// deterministic yet distinct from the original pass.
func DeriveFix(runID string, baseSeed uint64, stageIndex, fixIteration int, flags map[string]bool) ExecutionContext {
	ctx := Derive(runID, baseSeed, stageIndex, flags)
	ctx.FixIteration = fixIteration
	return ctx
}

// Seed returns the derived seed for this context. The derivation hashes
// the base seed, stage index, and fix iteration with length-neutral
// fixed-width encoding and truncates to 64 bits, so derived seeds never
// collide across stage indices for any base seed in practice.
func (c ExecutionContext) Seed() uint64 {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], c.BaseSeed)
	binary.BigEndian.PutUint64(buf[8:16], uint64(c.StageIndex))
	binary.BigEndian.PutUint64(buf[16:24], uint64(c.FixIteration))
	sum := sha256.Sum256(buf[:])
	return binary.BigEndian.Uint64(sum[:8])
}

// Rand returns a PRNG seeded from the derived seed. Each call returns an
// independent generator positioned at the same deterministic start.
func (c ExecutionContext) Rand() *rand.Rand {
	return rand.New(rand.NewSource(int64(c.Seed())))
}

// Flag reports whether a feature flag is enabled on this context.
func (c ExecutionContext) Flag(name string) bool {
	if c.Flags == nil {
		return false
	}
	return c.Flags[name]
}
