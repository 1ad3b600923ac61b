// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/guardianwallet/utils"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name        string
		validate    func(string) error
		input       string
		expectedErr error
	}{
		{"address", validateAddress, " 0x00000000000000000000000000000000000000dd ", nil},
		{"address empty", validateAddress, "", ErrInputEmpty},
		{"address short", validateAddress, "0xdd", ErrInvalidAddress},
		{"amount", validateAmount, "1.5", nil},
		{"amount empty", validateAmount, "", ErrInputEmpty},
		{"amount negative", validateAmount, "-1", utils.ErrInvalidAmount},
		{"yes", validateYesNo, "Y", nil},
		{"no", validateYesNo, "n", nil},
		{"maybe", validateYesNo, "maybe", ErrInvalidChoice},
		{"choice empty", validateYesNo, "", ErrInputEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.validate(tt.input), tt.expectedErr)
		})
	}
}
