//go:build tools

// Package tools pins the code generators used by go generate so that
// go.mod tracks them.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
