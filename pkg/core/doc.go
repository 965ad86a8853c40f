// Package core defines the shared language of the LeapShader system.
//
// This package contains:
//   - Domain entities (Stage, SourcePair, CompileStatus)
//   - The error-reporting model (StructuredError, ErrorReport)
//   - Service interfaces (Store)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
