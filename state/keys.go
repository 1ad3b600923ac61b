// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

const (
	Read     Permissions = 1
	Allocate             = 1<<1 | Read
	Write                = 1<<2 | Read

	None Permissions = 0
	All              = Read | Allocate | Write
)

// Keys maps a state key to the permissions an operation holds on it.
// Every key an operation touches must be declared up front so the
// dispatcher can load it before execution starts.
type Keys map[string]Permissions

// Permissions is a bitmask of Read/Allocate/Write.
type Permissions byte

// Add unions [permission] into any permission already held for [name], so
// declaring the same key twice never downgrades access.
func (k Keys) Add(name string, permission Permissions) {
	k[name] |= permission
}

// Merge adds every key of [other] to [k].
func (k Keys) Merge(other Keys) {
	for name, p := range other {
		k.Add(name, p)
	}
}

// Has returns true if [p] has all the permissions that are contained in require
func (p Permissions) Has(require Permissions) bool {
	return require&^p == 0
}
