// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wallet

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/guardianwallet/actions"
	"github.com/ava-labs/guardianwallet/approval"
	"github.com/ava-labs/guardianwallet/auth"
	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/event"
	"github.com/ava-labs/guardianwallet/guardian"
	"github.com/ava-labs/guardianwallet/quota"
	"github.com/ava-labs/guardianwallet/security"
	"github.com/ava-labs/guardianwallet/storage"
	"github.com/ava-labs/guardianwallet/trace"
)

const start = int64(1_700_000_000)

var (
	chainID    = big.NewInt(43114)
	masterCopy = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	recipient  = common.HexToAddress("0x00000000000000000000000000000000000000dd")
)

func newDispatcher(t *testing.T, subs ...event.Subscriber) *Dispatcher {
	d, _, err := New(
		logging.NoLog{},
		trace.Noop(),
		memdb.New(),
		actions.NewDefaultRules(),
		chainID,
		subs...,
	)
	require.NoError(t, err)
	d.Clock().Set(time.Unix(start, 0))
	return d
}

func advance(d *Dispatcher, seconds int64) {
	d.Clock().Set(time.Unix(d.now()+seconds, 0))
}

// newSigners returns [n] keys sorted by address.
func newSigners(t *testing.T, n int) []*auth.PrivateKeySigner {
	signers := make([]*auth.PrivateKeySigner, n)
	for i := range signers {
		s, err := auth.GeneratePrivateKeySigner()
		require.NoError(t, err)
		signers[i] = s
	}
	sort.Slice(signers, func(i, j int) bool {
		return codec.CompareAddress(signers[i].Address(), signers[j].Address()) < 0
	})
	return signers
}

func addresses[T auth.HashSigner](signers []T) []common.Address {
	addrs := make([]common.Address, len(signers))
	for i, s := range signers {
		addrs[i] = s.Address()
	}
	return addrs
}

type testWallet struct {
	t         *testing.T
	d         *Dispatcher
	addr      common.Address
	owner     auth.HashSigner
	guardians []*auth.PrivateKeySigner
}

func newWallet(t *testing.T, d *Dispatcher, guardians int, dailyQuota uint64) *testWallet {
	require := require.New(t)

	keys := newSigners(t, guardians+2)
	w := &testWallet{
		t:         t,
		d:         d,
		addr:      keys[0].Address(),
		owner:     keys[1],
		guardians: newSigners(t, guardians),
	}
	var q *uint256.Int
	if dailyQuota > 0 {
		q = uint256.NewInt(dailyQuota)
	}
	_, err := d.Create(context.Background(), &CreateRequest{
		Wallet:     w.addr,
		Owner:      w.owner.Address(),
		MasterCopy: masterCopy,
		Guardians:  addresses(w.guardians),
		Quota:      q,
	})
	require.NoError(err)
	return w
}

func (w *testWallet) status() *Status {
	s, err := w.d.Status(context.Background(), w.addr)
	require.NoError(w.t, err)
	return s
}

func (w *testWallet) normal(a actions.Action) (*Result, error) {
	s := w.status()
	return w.normalWithNonce(a, s.Nonce+1, s.MasterCopy)
}

func (w *testWallet) normalWithNonce(a actions.Action, nonce uint64, mc common.Address) (*Result, error) {
	ctx := context.Background()
	hash, err := NormalHash(chainID, mc, w.addr, nonce, a)
	require.NoError(w.t, err)
	sig, err := w.owner.SignHash(ctx, hash)
	require.NoError(w.t, err)
	return w.d.ExecuteNormal(ctx, &NormalRequest{
		Wallet:    w.addr,
		Nonce:     nonce,
		Action:    a,
		Signature: sig,
	})
}

// approve builds an approval request signed by [signers] and, if
// [withOwner], by the owner.
func (w *testWallet) approve(a actions.Action, signers []auth.HashSigner, withOwner bool, validUntil int64) *ApprovalRequest {
	require := require.New(w.t)
	ctx := context.Background()

	salt, err := approval.NewSalt()
	require.NoError(err)
	hash, err := ApprovalHash(chainID, w.status().MasterCopy, w.addr, a, validUntil, salt)
	require.NoError(err)
	bundle, err := approval.NewCollector(2, signers...).Collect(ctx, hash, validUntil, salt)
	require.NoError(err)
	req := &ApprovalRequest{Wallet: w.addr, Action: a, Approval: *bundle}
	if withOwner {
		req.OwnerSignature, err = w.owner.SignHash(ctx, hash)
		require.NoError(err)
	}
	return req
}

func hashSigners(signers ...*auth.PrivateKeySigner) []auth.HashSigner {
	out := make([]auth.HashSigner, len(signers))
	for i, s := range signers {
		out[i] = s
	}
	return out
}

func recordTypes(records []event.Record) []event.Type {
	types := make([]event.Type, len(records))
	for i, r := range records {
		types[i] = r.Type
	}
	return types
}

func findGuardian(s *Status, addr common.Address) (storage.Guardian, bool) {
	for _, g := range s.Guardians {
		if g.Addr == addr {
			return g, true
		}
	}
	return storage.Guardian{}, false
}

func TestCreate(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)
	keys := newSigners(t, 5)
	wallet, owner, guardians := keys[0].Address(), keys[1].Address(), addresses(keys[2:])

	res, err := d.Create(ctx, &CreateRequest{
		Wallet:     wallet,
		Owner:      owner,
		MasterCopy: masterCopy,
		Guardians:  guardians,
		Quota:      uint256.NewInt(100),
	})
	require.NoError(err)
	require.Equal([]event.Type{
		event.WalletCreated,
		event.GuardianAdded,
		event.GuardianAdded,
		event.GuardianAdded,
		event.QuotaChanged,
	}, recordTypes(res.Records))
	require.Equal(start, res.Records[1].EffectiveTime)
	require.Equal(start, res.Records[2].EffectiveTime)
	require.Equal(start+consts.GuardianDelay, res.Records[3].EffectiveTime)

	s, err := d.Status(ctx, wallet)
	require.NoError(err)
	require.Equal(owner, s.Owner)
	require.Equal(masterCopy, s.MasterCopy)
	require.Zero(s.Nonce)
	require.Len(s.Guardians, 3)
	require.Equal(2, s.Quorum)
	require.Equal(uint64(100), s.Quota.Effective.Uint64())

	_, err = d.Create(ctx, &CreateRequest{Wallet: wallet, Owner: owner, MasterCopy: masterCopy})
	require.ErrorIs(err, ErrWalletExists)

	tests := map[string]struct {
		req *CreateRequest
		err error
	}{
		"unsorted guardians": {
			req: &CreateRequest{Owner: owner, MasterCopy: masterCopy, Guardians: []common.Address{guardians[1], guardians[0]}},
			err: codec.ErrInvalidOrdering,
		},
		"owner as guardian": {
			req: &CreateRequest{Owner: guardians[0], MasterCopy: masterCopy, Guardians: guardians},
			err: guardian.ErrGuardianCanNotBeOwner,
		},
		"missing owner": {
			req: &CreateRequest{MasterCopy: masterCopy},
			err: ErrInvalidOwner,
		},
		"missing master copy": {
			req: &CreateRequest{Owner: owner},
			err: ErrInvalidMasterCopy,
		},
	}
	for name, tt := range tests {
		tt.req.Wallet = common.HexToAddress("0x0000000000000000000000000000000000000abc")
		_, err := d.Create(ctx, tt.req)
		require.ErrorIs(err, tt.err, name)

		_, err = d.Status(ctx, tt.req.Wallet)
		require.ErrorIs(err, storage.ErrWalletNotFound, name)
	}
}

func TestGuardianDelayScenario(t *testing.T) {
	require := require.New(t)
	d := newDispatcher(t)
	w := newWallet(t, d, 0, 0)
	g := newSigners(t, 3)

	for i, want := range []int64{start, start, start + consts.GuardianDelay} {
		res, err := w.normal(&actions.AddGuardian{Guardian: g[i].Address()})
		require.NoError(err)
		require.Len(res.Records, 1)
		require.Equal(event.GuardianAdded, res.Records[0].Type)
		require.Equal(want, res.Records[0].EffectiveTime)
	}

	g3, ok := findGuardian(w.status(), g[2].Address())
	require.True(ok)
	require.Equal(storage.PendingAdd, g3.Status)
	require.Equal(2, w.status().Quorum)

	advance(d, consts.GuardianDelay-1)
	g3, _ = findGuardian(w.status(), g[2].Address())
	require.Equal(storage.PendingAdd, g3.Status)

	advance(d, 1)
	g3, _ = findGuardian(w.status(), g[2].Address())
	require.Equal(storage.Active, g3.Status)
	require.Equal(2, w.status().Quorum)
}

func TestQuotaDelayScenario(t *testing.T) {
	require := require.New(t)
	d := newDispatcher(t)
	w := newWallet(t, d, 0, 0)

	_, err := w.normal(&actions.ChangeDailyQuota{NewQuota: uint256.NewInt(10)})
	require.NoError(err)
	advance(d, consts.Day)
	require.Equal(uint64(10), w.status().Quota.Effective.Uint64())

	res, err := w.normal(&actions.ChangeDailyQuota{NewQuota: uint256.NewInt(50)})
	require.NoError(err)
	require.Equal(d.now()+consts.QuotaDelay, res.Records[0].EffectiveTime)

	s := w.status()
	require.Equal(uint64(10), s.Quota.Effective.Uint64())
	require.Equal(uint64(50), s.Quota.Pending.Uint64())

	advance(d, consts.Day)
	require.Equal(uint64(50), w.status().Quota.Effective.Uint64())
}

func TestRecoverWhileLockedScenario(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)
	w := newWallet(t, d, 2, 100)

	res, err := d.Lock(ctx, w.addr, w.guardians[0].Address())
	require.NoError(err)
	require.Equal([]event.Type{event.Locked}, recordTypes(res.Records))
	require.True(w.status().Locked)

	newOwner := newSigners(t, 1)[0]
	req := w.approve(&actions.Recover{NewOwner: newOwner.Address()}, hashSigners(w.guardians...), false, 0)
	res, err = d.ExecuteWithApproval(ctx, req)
	require.NoError(err)
	require.Equal([]event.Type{event.Recovered}, recordTypes(res.Records))

	s := w.status()
	require.Equal(newOwner.Address(), s.Owner)
	require.True(s.Locked)
	consumed, err := d.IsConsumed(ctx, w.addr, res.Digest)
	require.NoError(err)
	require.True(consumed)

	_, err = d.ExecuteWithApproval(ctx, req)
	require.ErrorIs(err, approval.ErrHashExists)

	// The new owner and the guardians can lift the lock.
	w.owner = newOwner
	_, err = d.ExecuteWithApproval(ctx, w.approve(&actions.Unlock{}, hashSigners(w.guardians...), true, 0))
	require.NoError(err)
	require.False(w.status().Locked)
}

func TestLockBlocksNormalPath(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)
	w := newWallet(t, d, 2, 100)
	_, err := d.Deposit(ctx, w.addr, codec.EmptyAddress, uint256.NewInt(1_000))
	require.NoError(err)

	_, err = d.Lock(ctx, w.addr, recipient)
	require.ErrorIs(err, security.ErrUnauthorized)

	// An owner lock is owner activity; a guardian lock is not.
	advance(d, 100)
	_, err = d.Lock(ctx, w.addr, w.owner.Address())
	require.NoError(err)
	require.Equal(start+100, w.status().LastActive)
	// Locking again changes nothing.
	advance(d, 100)
	res, err := d.Lock(ctx, w.addr, w.guardians[1].Address())
	require.NoError(err)
	require.Empty(res.Records)
	require.Equal(start+100, w.status().LastActive)

	transfer := &actions.TransferToken{To: recipient, Amount: uint256.NewInt(10)}
	_, err = w.normal(transfer)
	require.ErrorIs(err, ErrLocked)

	// The approval path ignores the lock and the quota.
	large := &actions.TransferToken{To: recipient, Amount: uint256.NewInt(500)}
	_, err = d.ExecuteWithApproval(ctx, w.approve(large, hashSigners(w.guardians...), true, 0))
	require.NoError(err)
	bal, err := d.Balance(ctx, recipient, codec.EmptyAddress)
	require.NoError(err)
	require.Equal(uint64(500), bal.Uint64())
}

func TestNormalPath(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)
	w := newWallet(t, d, 2, 100)
	_, err := d.Deposit(ctx, w.addr, codec.EmptyAddress, uint256.NewInt(1_000))
	require.NoError(err)
	transfer := &actions.TransferToken{To: recipient, Amount: uint256.NewInt(60)}

	_, err = w.normalWithNonce(transfer, 2, masterCopy)
	require.ErrorIs(err, ErrInvalidNonce)

	impostor := newSigners(t, 1)[0]
	owner := w.owner
	w.owner = impostor
	_, err = w.normal(transfer)
	require.ErrorIs(err, ErrUnauthorized)
	w.owner = owner

	_, err = w.normal(&actions.Unlock{})
	require.ErrorIs(err, actions.ErrPathNotAllowed)

	advance(d, consts.Hour)
	res, err := w.normal(transfer)
	require.NoError(err)
	require.Equal([]event.Type{event.TokenTransferred}, recordTypes(res.Records))
	s := w.status()
	require.Equal(uint64(1), s.Nonce)
	require.Equal(d.now(), s.LastActive)
	require.Equal(uint64(40), s.Quota.Available.Uint64())

	// A replayed nonce is rejected.
	_, err = w.normalWithNonce(transfer, 1, masterCopy)
	require.ErrorIs(err, ErrInvalidNonce)
}

func TestFailedOperationLeavesNoTrace(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)
	w := newWallet(t, d, 2, 100)
	_, err := d.Deposit(ctx, w.addr, codec.EmptyAddress, uint256.NewInt(1_000))
	require.NoError(err)

	// Quota is exceeded after the nonce and activity were updated in the
	// view; neither may persist.
	advance(d, consts.Hour)
	_, err = w.normal(&actions.TransferToken{To: recipient, Amount: uint256.NewInt(101)})
	require.ErrorIs(err, quota.ErrQuotaExceeded)
	s := w.status()
	require.Zero(s.Nonce)
	require.Equal(start, s.LastActive)

	// A failing approved action does not consume its digest, so a fixed
	// bundle can not be burned by a failure.
	req := w.approve(&actions.TransferToken{To: recipient, Amount: uint256.NewInt(5_000)}, hashSigners(w.guardians...), true, 0)
	_, err = d.ExecuteWithApproval(ctx, req)
	require.ErrorIs(err, storage.ErrInvalidBalance)
	digest, err := ApprovalHash(chainID, masterCopy, w.addr, req.Action, req.Approval.ValidUntil, req.Approval.Salt)
	require.NoError(err)
	consumed, err := d.IsConsumed(ctx, w.addr, digest)
	require.NoError(err)
	require.False(consumed)

	bal, err := d.Balance(ctx, w.addr, codec.EmptyAddress)
	require.NoError(err)
	require.Equal(uint64(1_000), bal.Uint64())
}

func TestApprovalRejections(t *testing.T) {
	d := newDispatcher(t)
	w := newWallet(t, d, 3, 100)
	advance(d, consts.GuardianDelay)
	outsider := newSigners(t, 1)[0]
	quotaChange := &actions.ChangeDailyQuota{NewQuota: uint256.NewInt(1)}

	tests := map[string]struct {
		req func() *ApprovalRequest
		err error
	}{
		"below quorum": {
			req: func() *ApprovalRequest {
				return w.approve(quotaChange, hashSigners(w.guardians[0]), true, 0)
			},
			err: approval.ErrQuorumNotMet,
		},
		"outsider": {
			req: func() *ApprovalRequest {
				return w.approve(quotaChange, hashSigners(w.guardians[0], w.guardians[1], outsider), true, 0)
			},
			err: approval.ErrNotGuardian,
		},
		"missing owner": {
			req: func() *ApprovalRequest {
				return w.approve(quotaChange, hashSigners(w.guardians...), false, 0)
			},
			err: approval.ErrInvalidOwnerSignature,
		},
		"expired": {
			req: func() *ApprovalRequest {
				return w.approve(quotaChange, hashSigners(w.guardians...), true, d.now()-1)
			},
			err: approval.ErrApprovalExpired,
		},
		"owner only action": {
			req: func() *ApprovalRequest {
				inheritor := &actions.SetInheritor{Inheritor: recipient, WaitingPeriod: consts.MinInheritWaiting}
				return w.approve(inheritor, hashSigners(w.guardians...), true, 0)
			},
			err: actions.ErrPathNotAllowed,
		},
		"tampered action": {
			req: func() *ApprovalRequest {
				req := w.approve(quotaChange, hashSigners(w.guardians...), true, 0)
				req.Action = &actions.ChangeDailyQuota{NewQuota: uint256.NewInt(1_000_000)}
				return req
			},
			err: approval.ErrInvalidSignature,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := d.ExecuteWithApproval(context.Background(), tt.req())
			require.ErrorIs(t, err, tt.err)
		})
	}

	// A valid bundle that expires exactly now is still accepted.
	_, err := d.ExecuteWithApproval(context.Background(), w.approve(quotaChange, hashSigners(w.guardians...), true, d.now()))
	require.NoError(t, err)
}

func TestChangeMasterCopyInvalidatesSignatures(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)
	w := newWallet(t, d, 2, 100)
	newMasterCopy := common.HexToAddress("0x00000000000000000000000000000000000000f1")

	stale := w.approve(&actions.AddToWhitelist{Addr: recipient}, hashSigners(w.guardians...), true, 0)
	_, err := d.ExecuteWithApproval(ctx, w.approve(&actions.ChangeMasterCopy{MasterCopy: newMasterCopy}, hashSigners(w.guardians...), true, 0))
	require.NoError(err)
	require.Equal(newMasterCopy, w.status().MasterCopy)

	_, err = d.ExecuteWithApproval(ctx, stale)
	require.ErrorIs(err, approval.ErrInvalidSignature)

	_, err = w.normalWithNonce(&actions.AddToWhitelist{Addr: recipient}, 1, masterCopy)
	require.ErrorIs(err, ErrUnauthorized)
	_, err = w.normal(&actions.AddToWhitelist{Addr: recipient})
	require.NoError(err)
}

func TestDelegatedGuardian(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)

	// [inner] is a wallet acting as a guardian of [outer].
	inner := newWallet(t, d, 0, 0)
	key := newSigners(t, 1)[0]
	keys := newSigners(t, 2)
	outerAddr, ownerKey := keys[0].Address(), keys[1]
	guardians := []auth.HashSigner{key, &auth.ManagerSigner{Account: inner.addr, Manager: inner.owner}}
	sort.Slice(guardians, func(i, j int) bool {
		return codec.CompareAddress(guardians[i].Address(), guardians[j].Address()) < 0
	})
	_, err := d.Create(ctx, &CreateRequest{
		Wallet:     outerAddr,
		Owner:      ownerKey.Address(),
		MasterCopy: masterCopy,
		Guardians:  addresses(guardians),
	})
	require.NoError(err)
	outer := &testWallet{t: t, d: d, addr: outerAddr, owner: ownerKey}

	res, err := d.ExecuteWithApproval(ctx, outer.approve(&actions.AddToWhitelist{Addr: recipient}, guardians, true, 0))
	require.NoError(err)
	require.Equal(d.now(), res.Records[0].EffectiveTime)

	// A key that does not own [inner] can not sign for it.
	_, err = d.ExecuteWithApproval(ctx, outer.approve(&actions.RemoveFromWhitelist{Addr: recipient}, []auth.HashSigner{
		key,
		&auth.ManagerSigner{Account: inner.addr, Manager: key},
	}, true, 0))
	require.ErrorIs(err, approval.ErrInvalidSignature)
	require.ErrorIs(err, auth.ErrNotManager)
}

func TestWalletCanNotGuardItself(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher(t)
	w := newWallet(t, d, 2, 0)
	self := []common.Address{w.guardians[0].Address(), w.addr}
	sort.Slice(self, func(i, j int) bool {
		return codec.CompareAddress(self[i], self[j]) < 0
	})

	tests := map[string]func() error{
		"create": func() error {
			key := newSigners(t, 1)[0]
			_, err := d.Create(ctx, &CreateRequest{
				Wallet:     key.Address(),
				Owner:      w.owner.Address(),
				MasterCopy: masterCopy,
				Guardians:  []common.Address{key.Address()},
			})
			return err
		},
		"add guardian": func() error {
			_, err := w.normal(&actions.AddGuardian{Guardian: w.addr})
			return err
		},
		"reset guardians": func() error {
			_, err := w.normal(&actions.ResetGuardians{Guardians: self})
			return err
		},
		"recover": func() error {
			newOwner := newSigners(t, 1)[0].Address()
			_, err := d.ExecuteWithApproval(ctx, w.approve(&actions.Recover{NewOwner: newOwner, NewGuardians: self}, hashSigners(w.guardians...), false, 0))
			return err
		},
	}
	for name, run := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			require.ErrorIs(run(), guardian.ErrInvalidGuardian)
			require.Equal(addresses(w.guardians), addressesOf(w.status().Guardians))
		})
	}
}

// A guardian wallet owned by the same key must not stand in for a second
// approver.
func TestGuardianManagedByOwnerKey(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)

	keys := newSigners(t, 3)
	outerAddr, ownerKey, other := keys[0].Address(), keys[1], keys[2]

	// [sibling] is a second wallet held by the owner key.
	siblingKey := newSigners(t, 1)[0]
	_, err := d.Create(ctx, &CreateRequest{
		Wallet:     siblingKey.Address(),
		Owner:      ownerKey.Address(),
		MasterCopy: masterCopy,
	})
	require.NoError(err)
	guardians := []auth.HashSigner{other, &auth.ManagerSigner{Account: siblingKey.Address(), Manager: ownerKey}}
	sort.Slice(guardians, func(i, j int) bool {
		return codec.CompareAddress(guardians[i].Address(), guardians[j].Address()) < 0
	})
	_, err = d.Create(ctx, &CreateRequest{
		Wallet:     outerAddr,
		Owner:      ownerKey.Address(),
		MasterCopy: masterCopy,
		Guardians:  addresses(guardians),
	})
	require.NoError(err)
	outer := &testWallet{t: t, d: d, addr: outerAddr, owner: ownerKey}

	_, err = d.Lock(ctx, outerAddr, other.Address())
	require.NoError(err)

	tests := map[string]*ApprovalRequest{
		"unlock":  outer.approve(&actions.Unlock{}, guardians, true, 0),
		"recover": outer.approve(&actions.Recover{NewOwner: newSigners(t, 1)[0].Address()}, guardians, false, 0),
	}
	for name, req := range tests {
		_, err := d.ExecuteWithApproval(ctx, req)
		require.ErrorIs(err, approval.ErrSignedByOwner, name)
	}
	s := outer.status()
	require.Equal(ownerKey.Address(), s.Owner)
	require.True(s.Locked)
}

func addressesOf(gs []storage.Guardian) []common.Address {
	out := make([]common.Address, len(gs))
	for i, g := range gs {
		out[i] = g.Addr
	}
	return out
}

func TestInherit(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)
	w := newWallet(t, d, 2, 100)
	heir := newSigners(t, 1)[0]

	_, err := w.normal(&actions.SetInheritor{Inheritor: heir.Address(), WaitingPeriod: consts.MinInheritWaiting})
	require.NoError(err)
	require.Equal(start+consts.MinInheritWaiting, w.status().InheritableAt)

	_, err = d.Inherit(ctx, w.addr, w.owner.Address(), heir.Address(), false)
	require.ErrorIs(err, security.ErrUnauthorized)

	advance(d, consts.MinInheritWaiting-1)
	_, err = d.Inherit(ctx, w.addr, heir.Address(), heir.Address(), false)
	require.ErrorIs(err, security.ErrTooEarly)

	_, err = d.Inherit(ctx, w.addr, heir.Address(), w.guardians[0].Address(), false)
	require.ErrorIs(err, security.ErrTooEarly)

	advance(d, 1)
	_, err = d.Inherit(ctx, w.addr, heir.Address(), w.guardians[0].Address(), false)
	require.ErrorIs(err, guardian.ErrGuardianCanNotBeOwner)

	res, err := d.Inherit(ctx, w.addr, heir.Address(), heir.Address(), true)
	require.NoError(err)
	require.Equal([]event.Type{event.Inherited, event.GuardianRemoved, event.GuardianRemoved}, recordTypes(res.Records))

	s := w.status()
	require.Equal(heir.Address(), s.Owner)
	require.Equal(codec.EmptyAddress, s.Inheritor)
	require.Empty(s.Guardians)
	require.Equal(d.now(), s.LastActive)

	// The inheritor is consumed.
	_, err = d.Inherit(ctx, w.addr, heir.Address(), heir.Address(), true)
	require.ErrorIs(err, security.ErrUnauthorized)
}

func TestSubscribers(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	var batches []event.Batch
	failing := errors.New("subscriber down")
	d := newDispatcher(t,
		event.SubscriberFunc(func(_ context.Context, b event.Batch) error {
			batches = append(batches, b)
			return nil
		}),
		event.SubscriberFunc(func(context.Context, event.Batch) error {
			return failing
		}),
	)
	w := newWallet(t, d, 1, 0)

	// A failing subscriber does not undo a committed operation.
	_, err := d.Lock(ctx, w.addr, w.owner.Address())
	require.NoError(err)
	require.True(w.status().Locked)

	require.Len(batches, 2)
	require.Equal("Create", batches[0].Operation)
	require.Equal("Lock", batches[1].Operation)
	require.Equal(w.addr, batches[1].Wallet)
	require.Equal([]event.Type{event.Locked}, recordTypes(batches[1].Records))

	// Rejected operations are never published.
	_, err = d.Lock(ctx, w.addr, recipient)
	require.Error(err)
	require.Len(batches, 2)
	require.NoError(d.Close())
}

func signCaller(t *testing.T, signer auth.HashSigner, hash common.Hash, validUntil int64) *CallerAuth {
	sig, err := signer.SignHash(context.Background(), hash)
	require.NoError(t, err)
	return &CallerAuth{Caller: signer.Address(), ValidUntil: validUntil, Signature: sig}
}

func TestLockSigned(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)
	w := newWallet(t, d, 2, 0)
	validUntil := d.now() + 60

	hash, err := LockHash(chainID, masterCopy, w.addr, validUntil)
	require.NoError(err)

	// Signed by someone else than the claimed caller.
	forged := signCaller(t, w.guardians[0], hash, validUntil)
	forged.Caller = w.owner.Address()
	_, err = d.LockSigned(ctx, w.addr, forged)
	require.ErrorIs(err, ErrUnauthorized)

	_, err = d.LockSigned(ctx, w.addr, signCaller(t, w.guardians[0], hash, 0))
	require.ErrorIs(err, ErrExpired)

	// The signature is bound to the domain.
	other, err := LockHash(chainID, recipient, w.addr, validUntil)
	require.NoError(err)
	_, err = d.LockSigned(ctx, w.addr, signCaller(t, w.guardians[0], other, validUntil))
	require.ErrorIs(err, ErrUnauthorized)

	ca := signCaller(t, w.guardians[0], hash, validUntil)
	advance(d, 61)
	_, err = d.LockSigned(ctx, w.addr, ca)
	require.ErrorIs(err, ErrExpired)
	require.False(w.status().Locked)

	validUntil = d.now() + 60
	hash, err = LockHash(chainID, masterCopy, w.addr, validUntil)
	require.NoError(err)
	res, err := d.LockSigned(ctx, w.addr, signCaller(t, w.guardians[0], hash, validUntil))
	require.NoError(err)
	require.Equal([]event.Type{event.Locked}, recordTypes(res.Records))
	require.True(w.status().Locked)
}

func TestInheritSigned(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	d := newDispatcher(t)
	w := newWallet(t, d, 1, 0)
	heir := newSigners(t, 1)[0]

	_, err := w.normal(&actions.SetInheritor{Inheritor: heir.Address(), WaitingPeriod: consts.MinInheritWaiting})
	require.NoError(err)
	advance(d, consts.MinInheritWaiting)

	validUntil := d.now() + 60
	hash, err := InheritHash(chainID, masterCopy, w.addr, validUntil, heir.Address(), false)
	require.NoError(err)

	// The signed terms can not be changed.
	_, err = d.InheritSigned(ctx, w.addr, heir.Address(), true, signCaller(t, heir, hash, validUntil))
	require.ErrorIs(err, ErrUnauthorized)

	_, err = d.InheritSigned(ctx, w.addr, heir.Address(), false, signCaller(t, heir, hash, validUntil))
	require.NoError(err)
	s := w.status()
	require.Equal(heir.Address(), s.Owner)
	require.Len(s.Guardians, 1)
}
