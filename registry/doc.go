// Copyright (c) Eigenflow Authors.
// Licensed under the MIT License.

// Package registry provides the generic string-keyed lookup table the
// engine uses for step-type factories and compiled workflows.
// Registration is the only mutating operation and happens during
// startup wiring; reads are safe under concurrent runs.
package registry
