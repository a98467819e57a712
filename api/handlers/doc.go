// Copyright (c) Eigenflow Authors.
// Licensed under the MIT License.

// Package handlers implements the HTTP invocation surface: running a
// registered workflow by id, listing known workflows, health, and
// metrics. Engine errors map to 4xx responses; unknown workflow ids
// return the list of known ids.
package handlers
