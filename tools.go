//go:build tools
// +build tools

// Package tools pins the generators run by go generate (mockgen) in go.mod.
package roomchat

import (
	_ "go.uber.org/mock/mockgen"
)
