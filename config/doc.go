// Copyright (c) Eigenflow Authors.
// Licensed under the MIT License.

// Package config loads service configuration with layered precedence:
// built-in defaults, an optional YAML file, then environment variable
// overrides.
package config
