// Package stages holds the built-in pipeline stage implementations:
// plan, style, lyrics, producer, and compose. Every stage is a pure
// function of its input envelope; all randomness flows through the
// derived execution context so identical specifications and seeds
// always reproduce identical artifacts.
package stages
