// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package guardian

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/state/statetest"
	"github.com/ava-labs/guardianwallet/storage"
)

var (
	wallet = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	owner  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	g1     = common.HexToAddress("0x0000000000000000000000000000000000000001")
	g2     = common.HexToAddress("0x0000000000000000000000000000000000000002")
	g3     = common.HexToAddress("0x0000000000000000000000000000000000000003")
	g4     = common.HexToAddress("0x0000000000000000000000000000000000000004")
)

const now = int64(1_700_000_000)

func load(t *testing.T, store *statetest.InMemoryStore, at int64) *Set {
	s, err := Load(context.Background(), store, DefaultPolicy(), wallet, at)
	require.NoError(t, err)
	return s
}

func TestQuorumSize(t *testing.T) {
	require := require.New(t)
	for n := 0; n <= consts.MaxGuardians; n++ {
		require.Equal(n/2+1, QuorumSize(n))
		require.Greater(2*QuorumSize(n), n)
	}
}

func TestAddDelays(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := statetest.NewInMemoryStore()

	s := load(t, store, now)
	first, err := s.Add(owner, g1)
	require.NoError(err)
	require.Equal(storage.Active, first.Status)
	require.Equal(now, first.EffectiveTime)

	second, err := s.Add(owner, g2)
	require.NoError(err)
	require.Equal(now, second.EffectiveTime)

	third, err := s.Add(owner, g3)
	require.NoError(err)
	require.Equal(storage.PendingAdd, third.Status)
	require.Equal(now+consts.GuardianDelay, third.EffectiveTime)
	require.NoError(s.Save(ctx, store))

	// Scenario A: g3 is not a guardian until the delay elapses
	s = load(t, store, now+consts.GuardianDelay-1)
	require.False(s.IsGuardian(g3, false))
	require.True(s.IsGuardian(g3, true))
	require.Equal([]common.Address{g1, g2}, s.Active())

	s = load(t, store, now+consts.GuardianDelay)
	require.True(s.IsGuardian(g3, false))
	require.Equal([]common.Address{g1, g2, g3}, s.Active())
	require.Equal(2, s.Quorum())
}

func TestAddErrors(t *testing.T) {
	tests := map[string]struct {
		existing []common.Address
		addr     common.Address
		wantErr  error
	}{
		"owner": {
			addr:    owner,
			wantErr: ErrGuardianCanNotBeOwner,
		},
		"zero": {
			addr:    codec.EmptyAddress,
			wantErr: ErrInvalidGuardian,
		},
		"wallet itself": {
			addr:    wallet,
			wantErr: ErrInvalidGuardian,
		},
		"duplicate": {
			existing: []common.Address{g1},
			addr:     g1,
			wantErr:  ErrGuardianExists,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			s := load(t, statetest.NewInMemoryStore(), now)
			for _, a := range tt.existing {
				_, err := s.Add(owner, a)
				require.NoError(err)
			}
			_, err := s.Add(owner, tt.addr)
			require.ErrorIs(err, tt.wantErr)
		})
	}
}

func TestTooManyGuardians(t *testing.T) {
	require := require.New(t)

	s := load(t, statetest.NewInMemoryStore(), now)
	for i := 1; i <= consts.MaxGuardians; i++ {
		_, err := s.Add(owner, common.BigToAddress(big.NewInt(int64(i))))
		require.NoError(err)
	}
	_, err := s.Add(owner, common.HexToAddress("0xff"))
	require.ErrorIs(err, ErrTooManyGuardians)
}

func TestRemoveDelay(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := statetest.NewInMemoryStore()

	s := load(t, store, now)
	for _, a := range []common.Address{g1, g2, g3} {
		_, err := s.Add(owner, a)
		require.NoError(err)
	}
	require.NoError(s.Save(ctx, store))

	later := now + consts.GuardianDelay
	s = load(t, store, later)
	removed, err := s.Remove(g1)
	require.NoError(err)
	require.Equal(storage.PendingRemove, removed.Status)
	require.Equal(later+consts.GuardianDelay, removed.EffectiveTime)

	_, err = s.Remove(g1)
	require.ErrorIs(err, ErrRemovalPending)
	_, err = s.Remove(g4)
	require.ErrorIs(err, ErrGuardianNotFound)
	require.NoError(s.Save(ctx, store))

	// Still counts until the removal takes effect
	s = load(t, store, later+consts.GuardianDelay-1)
	require.True(s.IsGuardian(g1, false))
	require.Equal(2, s.Quorum())

	s = load(t, store, later+consts.GuardianDelay)
	require.False(s.IsGuardian(g1, true))
	require.Equal([]common.Address{g2, g3}, s.Active())

	// Saving purges the expired entry
	require.NoError(s.Save(ctx, store))
	entries, err := storage.GetGuardians(ctx, store, wallet)
	require.NoError(err)
	require.Len(entries, 2)
}

func TestRemovePendingAdd(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := statetest.NewInMemoryStore()

	s := load(t, store, now)
	for _, a := range []common.Address{g1, g2, g3} {
		_, err := s.Add(owner, a)
		require.NoError(err)
	}
	removed, err := s.Remove(g3)
	require.NoError(err)
	require.Equal(storage.PendingRemove, removed.Status)
	require.Equal(now+consts.GuardianDelay, removed.EffectiveTime)
	require.NoError(s.Save(ctx, store))

	// Never counts: neither before nor after the addition would have matured
	for _, at := range []int64{now, now + consts.GuardianDelay - 1} {
		s = load(t, store, at)
		require.False(s.IsGuardian(g3, false))
		require.True(s.IsGuardian(g3, true))
		require.Equal([]common.Address{g1, g2}, s.Active())
		require.Equal(2, s.Quorum())
	}

	s = load(t, store, now+consts.GuardianDelay)
	require.False(s.IsGuardian(g3, true))
	require.Equal(2, s.Len())

	// Requested again while leaving: a fresh delayed addition
	s = load(t, store, now+1)
	changes, err := s.Reset(owner, []common.Address{g1, g2, g3})
	require.NoError(err)
	require.Equal([]storage.Guardian{{
		Addr:          g3,
		Status:        storage.PendingAdd,
		EffectiveTime: now + 1 + consts.GuardianDelay,
		ActiveSince:   now + 1 + consts.GuardianDelay,
	}}, changes)
	require.False(s.IsGuardian(g3, false))
}

func TestWalletCanNotGuardItself(t *testing.T) {
	require := require.New(t)

	s := load(t, statetest.NewInMemoryStore(), now)
	_, err := s.Add(owner, g1)
	require.NoError(err)

	_, err = s.Reset(owner, []common.Address{g1, wallet})
	require.ErrorIs(err, ErrInvalidGuardian)
	_, err = s.Replace(owner, []common.Address{g1, wallet})
	require.ErrorIs(err, ErrInvalidGuardian)
}

func TestReset(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := statetest.NewInMemoryStore()

	s := load(t, store, now)
	for _, a := range []common.Address{g1, g2} {
		_, err := s.Add(owner, a)
		require.NoError(err)
	}
	require.NoError(s.Save(ctx, store))

	s = load(t, store, now+1)
	_, err := s.Reset(owner, []common.Address{g3, g2})
	require.ErrorIs(err, codec.ErrInvalidOrdering)

	changes, err := s.Reset(owner, []common.Address{g2, g3})
	require.NoError(err)
	require.Equal([]storage.Guardian{
		{Addr: g1, Status: storage.PendingRemove, EffectiveTime: now + 1 + consts.GuardianDelay, ActiveSince: now},
		{Addr: g3, Status: storage.PendingAdd, EffectiveTime: now + 1 + consts.GuardianDelay, ActiveSince: now + 1 + consts.GuardianDelay},
	}, changes)

	// Resetting back keeps g1 and cancels nothing else
	changes, err = s.Reset(owner, []common.Address{g1, g2, g3})
	require.NoError(err)
	require.Len(changes, 1)
	require.Equal(g1, changes[0].Addr)
	require.Equal(storage.Active, changes[0].Status)
}

func TestReplaceAndDrop(t *testing.T) {
	require := require.New(t)

	s := load(t, statetest.NewInMemoryStore(), now)
	for _, a := range []common.Address{g1, g2, g3} {
		_, err := s.Add(owner, a)
		require.NoError(err)
	}

	_, err := s.Replace(owner, []common.Address{g2, owner})
	require.ErrorIs(err, ErrGuardianCanNotBeOwner)
	_, err = s.Replace(owner, []common.Address{g4, g2})
	require.ErrorIs(err, codec.ErrInvalidOrdering)

	installed, err := s.Replace(owner, []common.Address{g2, g4})
	require.NoError(err)
	require.Len(installed, 2)
	require.Equal([]common.Address{g2, g4}, s.Active())

	require.True(s.Drop(g2))
	require.False(s.Drop(g2))
	require.Equal([]common.Address{g4}, s.Active())

	s.Clear()
	require.Zero(s.Len())
	require.Equal(1, s.Quorum())
}

func TestIsGuardianHelper(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := statetest.NewInMemoryStore()

	s := load(t, store, now)
	_, err := s.Add(owner, g1)
	require.NoError(err)
	require.NoError(s.Save(ctx, store))

	ok, err := IsGuardian(ctx, store, DefaultPolicy(), wallet, g1, false, now)
	require.NoError(err)
	require.True(ok)
	ok, err = IsGuardian(ctx, store, DefaultPolicy(), wallet, g2, true, now)
	require.NoError(err)
	require.False(ok)
}
