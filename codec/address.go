// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var EmptyAddress = common.Address{}

// ParseAddress decodes a 0x-prefixed (or bare) 40 character hex address.
//
// Unlike [common.HexToAddress], malformed input is rejected instead of
// being silently truncated or zero-padded.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return EmptyAddress, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// CompareAddress orders addresses by their big-endian byte value.
func CompareAddress(a, b common.Address) int {
	return bytes.Compare(a[:], b[:])
}

// VerifyAscending returns [ErrInvalidOrdering] unless [addrs] is strictly
// ascending. Strict ordering also rules out duplicates and the empty
// address appearing twice.
//
// Callers are expected to pre-sort: this never reorders its input.
func VerifyAscending(addrs []common.Address) error {
	for i := 1; i < len(addrs); i++ {
		if CompareAddress(addrs[i-1], addrs[i]) >= 0 {
			return fmt.Errorf(
				"%w: %s is not greater than %s (index %d)",
				ErrInvalidOrdering,
				addrs[i],
				addrs[i-1],
				i,
			)
		}
	}
	return nil
}
