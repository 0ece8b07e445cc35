//go:build tools
// +build tools

// Pins oapi-codegen so client generators for api/openapi.yaml use the same
// version as the runtime parameter binding in internal/infra/api.

package tools

import (
	_ "github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen"
)
