// Copyright (c) Eigenflow Authors.
// Licensed under the MIT License.

// Package checkpoint persists per-thread execution progress so a
// workflow run can be resumed. The in-memory store is the default; the
// Redis store adds cross-process durability with an optional TTL.
package checkpoint
