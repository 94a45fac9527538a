// Package types defines the shared value types that flow through the
// distillation pipeline: retrieval candidates, scored chunks, stored points,
// and the final DistillResult handed to generation.
//
// All types here are plain immutable records. They are created once per
// distillation run and never shared across runs.
package types
