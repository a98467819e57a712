// Copyright (c) Eigenflow Authors.
// Licensed under the MIT License.

/*
Package types contains the shared vocabulary of the engine: structured
errors with stable codes, and the JSON Schema representation used to
validate workflow input and state shapes.

Errors carry an ErrorCode so that callers (the HTTP surface in
particular) can map failures to user-visible responses without string
matching. Schema validation is delegated to gojsonschema; violations are
reported with their field paths.
*/
package types
