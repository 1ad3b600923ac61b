// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/guardianwallet/actions"
	"github.com/ava-labs/guardianwallet/utils"
)

const (
	low  = "0x0000000000000000000000000000000000000001"
	high = "0x00000000000000000000000000000000000000ff"
)

func TestBuildAction(t *testing.T) {
	oneNative, err := utils.ParseAmount("1")
	require.NoError(t, err)

	tests := []struct {
		name        string
		action      string
		args        actionArgs
		expected    actions.Action
		expectedErr error
	}{
		{
			name:   "native transfer",
			action: "transfer",
			args:   actionArgs{to: high, amount: "1"},
			expected: &actions.TransferToken{
				To:     common.HexToAddress(high),
				Amount: oneNative,
			},
		},
		{
			name:        "transfer without amount",
			action:      "transfer",
			args:        actionArgs{to: high},
			expectedErr: errMissingFlag,
		},
		{
			name:     "guardians are sorted",
			action:   "recover",
			args:     actionArgs{to: high, guardians: []string{high, low}},
			expected: &actions.Recover{NewOwner: common.HexToAddress(high), NewGuardians: []common.Address{common.HexToAddress(low), common.HexToAddress(high)}},
		},
		{
			name:        "add guardian needs exactly one",
			action:      "add-guardian",
			args:        actionArgs{guardians: []string{low, high}},
			expectedErr: errMissingFlag,
		},
		{
			name:     "unlock",
			action:   "unlock",
			expected: &actions.Unlock{},
		},
		{
			name:     "inheritor",
			action:   "set-inheritor",
			args:     actionArgs{to: low, waiting: 3600},
			expected: &actions.SetInheritor{Inheritor: common.HexToAddress(low), WaitingPeriod: 3600},
		},
		{
			name:     "change quota",
			action:   "change-quota",
			args:     actionArgs{amount: "0.5"},
			expected: &actions.ChangeDailyQuota{NewQuota: new(uint256.Int).Rsh(oneNative, 1)},
		},
		{
			name:        "unknown",
			action:      "selfdestruct",
			expectedErr: errUnknownAction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			a, err := buildAction(tt.action, &tt.args)
			require.ErrorIs(err, tt.expectedErr)
			require.Equal(tt.expected, a)
		})
	}
}

func TestActionNamesCoverRegistry(t *testing.T) {
	require.Len(t, actionNames(), len(actionBuilders))
}
