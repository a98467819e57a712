// Copyright (c) Eigenflow Authors.
// Licensed under the MIT License.

// Package telemetry wires the OpenTelemetry SDK and provides the
// per-run tracing listener the executor calls at run start and end.
// This package is internal and should not be imported by external
// projects.
package telemetry
