// Copyright (c) Eigenflow Authors.
// Licensed under the MIT License.

// Package steps provides the built-in step-type factories: pure
// transforms, model-backed text generation, outbound HTTP requests,
// pseudo-random choice, and nested sub-workflows. Each factory closes
// over its collaborators so the engine core stays free of provider
// concerns.
package steps
