// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package security

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/guardian"
	"github.com/ava-labs/guardianwallet/state/statetest"
	"github.com/ava-labs/guardianwallet/storage"
)

var (
	wallet    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	owner     = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	newOwner  = common.HexToAddress("0x00000000000000000000000000000000000000bc")
	inheritor = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	g1        = common.HexToAddress("0x0000000000000000000000000000000000000001")
	g2        = common.HexToAddress("0x0000000000000000000000000000000000000002")
	g3        = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

const now = int64(1_700_000_000)

func setup(t *testing.T, guardians ...common.Address) (*storage.Account, *guardian.Set) {
	s, err := guardian.Load(context.Background(), statetest.NewInMemoryStore(), guardian.DefaultPolicy(), wallet, now)
	require.NoError(t, err)
	for _, g := range guardians {
		_, err := s.Add(owner, g)
		require.NoError(t, err)
	}
	return &storage.Account{Owner: owner, LastActive: now}, s
}

func TestLock(t *testing.T) {
	tests := map[string]struct {
		caller         common.Address
		locked         bool
		wantChanged    bool
		wantLastActive int64
		wantErr        error
	}{
		"owner": {
			caller:         owner,
			wantChanged:    true,
			wantLastActive: now + 10,
		},
		"active guardian": {
			caller:         g1,
			wantChanged:    true,
			wantLastActive: now,
		},
		"already locked": {
			caller:         owner,
			locked:         true,
			wantLastActive: now + 10,
		},
		"already locked by guardian": {
			caller:         g2,
			locked:         true,
			wantLastActive: now,
		},
		"pending guardian": {
			caller:         g3,
			wantLastActive: now,
			wantErr:        ErrUnauthorized,
		},
		"stranger": {
			caller:         newOwner,
			wantLastActive: now,
			wantErr:        ErrUnauthorized,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			acct, set := setup(t, g1, g2, g3)
			acct.Locked = tt.locked

			changed, err := Lock(acct, set, tt.caller, now+10)
			require.ErrorIs(err, tt.wantErr)
			require.Equal(tt.wantChanged, changed)
			require.Equal(tt.wantLastActive, acct.LastActive)
			if tt.wantErr == nil {
				require.True(acct.Locked)
			}
		})
	}
}

func TestUnlock(t *testing.T) {
	require := require.New(t)
	acct := &storage.Account{Locked: true}
	require.True(Unlock(acct))
	require.False(acct.Locked)
	require.False(Unlock(acct))
}

func TestRecover(t *testing.T) {
	t.Run("keeps lock and drops new owner from guardians", func(t *testing.T) {
		require := require.New(t)
		acct, set := setup(t, g1, g2)
		acct.Locked = true

		removed, err := Recover(acct, set, g1, nil)
		require.NoError(err)
		require.Equal([]common.Address{g1}, removed)
		require.Equal(g1, acct.Owner)
		require.True(acct.Locked)
		require.Equal([]common.Address{g2}, set.Active())
	})
	t.Run("replaces guardians immediately", func(t *testing.T) {
		require := require.New(t)
		acct, set := setup(t, g1, g2)

		removed, err := Recover(acct, set, newOwner, []common.Address{g2, g3})
		require.NoError(err)
		require.Equal([]common.Address{g1}, removed)
		require.Equal([]common.Address{g2, g3}, set.Active())
	})
	t.Run("new owner outside the set removes nobody", func(t *testing.T) {
		require := require.New(t)
		acct, set := setup(t, g1, g2)

		removed, err := Recover(acct, set, newOwner, nil)
		require.NoError(err)
		require.Empty(removed)
		require.Equal([]common.Address{g1, g2}, set.Active())
	})
	t.Run("errors", func(t *testing.T) {
		require := require.New(t)
		acct, set := setup(t, g1, g2)

		tests := map[string]struct {
			newOwner     common.Address
			newGuardians []common.Address
			wantErr      error
		}{
			"same owner":         {newOwner: owner, wantErr: ErrIsSameOwner},
			"empty owner":        {newOwner: codec.EmptyAddress, wantErr: ErrInvalidOwner},
			"unsorted":           {newOwner: newOwner, newGuardians: []common.Address{g3, g2}, wantErr: codec.ErrInvalidOrdering},
			"owner as guardian":  {newOwner: newOwner, newGuardians: []common.Address{g1, newOwner}, wantErr: guardian.ErrGuardianCanNotBeOwner},
			"wallet as guardian": {newOwner: newOwner, newGuardians: []common.Address{g1, wallet}, wantErr: guardian.ErrInvalidGuardian},
		}
		for name, tt := range tests {
			_, err := Recover(acct, set, tt.newOwner, tt.newGuardians)
			require.ErrorIs(err, tt.wantErr, name)
		}
		require.Equal(owner, acct.Owner)
		require.Equal([]common.Address{g1, g2}, set.Active())
	})
}

func TestSetInheritor(t *testing.T) {
	tests := map[string]struct {
		inheritor common.Address
		waiting   int64
		wantErr   error
	}{
		"valid":        {inheritor: inheritor, waiting: consts.MinInheritWaiting},
		"maximum":      {inheritor: inheritor, waiting: consts.MaxInheritWaiting},
		"clear":        {},
		"too short":    {inheritor: inheritor, waiting: consts.MinInheritWaiting - 1, wantErr: ErrInvalidWaitingPeriod},
		"too long":     {inheritor: inheritor, waiting: consts.MaxInheritWaiting + 1, wantErr: ErrInvalidWaitingPeriod},
		"owner":        {inheritor: owner, waiting: consts.MinInheritWaiting, wantErr: ErrInvalidInheritor},
		"wallet":       {inheritor: wallet, waiting: consts.MinInheritWaiting, wantErr: ErrInvalidInheritor},
		"waiting only": {waiting: consts.MinInheritWaiting, wantErr: ErrInvalidWaitingPeriod},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			acct, _ := setup(t)
			err := SetInheritor(DefaultPolicy(), acct, wallet, tt.inheritor, tt.waiting)
			require.ErrorIs(err, tt.wantErr)
			if tt.wantErr == nil {
				require.Equal(tt.inheritor, acct.Inheritor)
				require.Equal(tt.waiting, acct.InheritWaitingPeriod)
			}
		})
	}
}

func TestInherit(t *testing.T) {
	waiting := consts.MinInheritWaiting
	ready := now + waiting

	t.Run("too early", func(t *testing.T) {
		require := require.New(t)
		acct, set := setup(t, g1)
		require.NoError(SetInheritor(DefaultPolicy(), acct, wallet, inheritor, waiting))
		require.Equal(ready, InheritableAt(acct))

		err := Inherit(acct, set, inheritor, newOwner, false, ready-1)
		require.ErrorIs(err, ErrTooEarly)
	})
	t.Run("owner activity resets the clock", func(t *testing.T) {
		require := require.New(t)
		acct, set := setup(t, g1)
		require.NoError(SetInheritor(DefaultPolicy(), acct, wallet, inheritor, waiting))
		Touch(acct, now+1)

		err := Inherit(acct, set, inheritor, newOwner, false, ready)
		require.ErrorIs(err, ErrTooEarly)
		require.NoError(Inherit(acct, set, inheritor, newOwner, false, ready+1))
	})
	t.Run("not inheritor", func(t *testing.T) {
		require := require.New(t)
		acct, set := setup(t)
		require.ErrorIs(Inherit(acct, set, inheritor, newOwner, false, ready), ErrUnauthorized)
		require.NoError(SetInheritor(DefaultPolicy(), acct, wallet, inheritor, waiting))
		require.ErrorIs(Inherit(acct, set, owner, newOwner, false, ready), ErrUnauthorized)
	})
	t.Run("guardian as new owner", func(t *testing.T) {
		require := require.New(t)
		acct, set := setup(t, g1)
		require.NoError(SetInheritor(DefaultPolicy(), acct, wallet, inheritor, waiting))
		require.ErrorIs(Inherit(acct, set, inheritor, g1, false, ready), guardian.ErrGuardianCanNotBeOwner)

		// Clearing guardians makes it acceptable
		require.NoError(Inherit(acct, set, inheritor, g1, true, ready))
		require.Zero(set.Len())
	})
	t.Run("success", func(t *testing.T) {
		require := require.New(t)
		acct, set := setup(t, g1, g2)
		acct.Locked = true
		require.NoError(SetInheritor(DefaultPolicy(), acct, wallet, inheritor, waiting))

		require.ErrorIs(Inherit(acct, set, inheritor, owner, false, ready), ErrIsSameOwner)
		require.NoError(Inherit(acct, set, inheritor, newOwner, false, ready))
		require.Equal(newOwner, acct.Owner)
		require.Equal(codec.EmptyAddress, acct.Inheritor)
		require.Zero(InheritableAt(acct))
		require.True(acct.Locked)
		require.Equal(2, set.Len())
	})
}
