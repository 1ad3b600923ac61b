// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package guardian

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/state"
	"github.com/ava-labs/guardianwallet/storage"
)

type Policy struct {
	// Delay applies to every removal and to additions once
	// [Immediate] guardians are live.
	Delay     int64 `json:"delay"     yaml:"delay"`
	Immediate int   `json:"immediate" yaml:"immediate"`
	Max       int   `json:"max"       yaml:"max"`
}

func DefaultPolicy() Policy {
	return Policy{
		Delay:     consts.GuardianDelay,
		Immediate: consts.ImmediateGuardians,
		Max:       consts.MaxGuardians,
	}
}

// QuorumSize is the number of guardian signatures needed when [n]
// guardians are active.
func QuorumSize(n int) int {
	return n/2 + 1
}

// Set is the guardian list of one wallet resolved at a point in time.
// Entries stay sorted by address so membership is a binary search.
type Set struct {
	policy  Policy
	wallet  common.Address
	now     int64
	entries []storage.Guardian
}

// Load reads the guardians of [wallet] and resolves every scheduled
// transition that has matured by [now].
func Load(
	ctx context.Context,
	im state.Immutable,
	policy Policy,
	wallet common.Address,
	now int64,
) (*Set, error) {
	entries, err := storage.GetGuardians(ctx, im, wallet)
	if err != nil {
		return nil, err
	}
	s := &Set{
		policy:  policy,
		wallet:  wallet,
		now:     now,
		entries: make([]storage.Guardian, 0, len(entries)),
	}
	for _, g := range entries {
		switch {
		case g.Status == storage.PendingAdd && g.EffectiveTime <= now:
			g.Status = storage.Active
		case g.Status == storage.PendingRemove && g.EffectiveTime <= now:
			continue
		}
		s.entries = append(s.entries, g)
	}
	return s, nil
}

// Save writes the normalized list back.
func (s *Set) Save(ctx context.Context, mu state.Mutable) error {
	return storage.SetGuardians(ctx, mu, s.wallet, s.entries)
}

func (s *Set) find(addr common.Address) (int, bool) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return codec.CompareAddress(s.entries[i].Addr, addr) >= 0
	})
	return i, i < len(s.entries) && s.entries[i].Addr == addr
}

func (s *Set) insert(g storage.Guardian) {
	i, _ := s.find(g.Addr)
	s.entries = append(s.entries, storage.Guardian{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = g
}

func (s *Set) delete(i int) {
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
}

// active reports whether [g] counts toward the quorum. A pending removal
// keeps its guardian active until it takes effect, unless the guardian
// never became active in the first place.
func (s *Set) active(g storage.Guardian) bool {
	switch g.Status {
	case storage.Active:
		return true
	case storage.PendingRemove:
		return g.ActiveSince <= s.now
	default:
		return false
	}
}

// IsGuardian reports whether [addr] is an active guardian, or, with
// [includePending], one whose addition has not matured yet.
func (s *Set) IsGuardian(addr common.Address, includePending bool) bool {
	i, ok := s.find(addr)
	if !ok {
		return false
	}
	return s.active(s.entries[i]) || includePending
}

// Guardians returns a copy of the entries matching [IsGuardian].
func (s *Set) Guardians(includePending bool) []storage.Guardian {
	out := make([]storage.Guardian, 0, len(s.entries))
	for _, g := range s.entries {
		if s.active(g) || includePending {
			out = append(out, g)
		}
	}
	return out
}

// Active returns the ascending addresses of active guardians.
func (s *Set) Active() []common.Address {
	out := make([]common.Address, 0, len(s.entries))
	for _, g := range s.entries {
		if s.active(g) {
			out = append(out, g.Addr)
		}
	}
	return out
}

func (s *Set) Quorum() int {
	return QuorumSize(len(s.Active()))
}

// Len is the number of live entries, pending or not.
func (s *Set) Len() int {
	return len(s.entries)
}

// check rejects guardians that would let the owner approve alone.
func (s *Set) check(owner common.Address, addr common.Address) error {
	switch addr {
	case codec.EmptyAddress:
		return ErrInvalidGuardian
	case s.wallet:
		return fmt.Errorf("%w: wallet can not guard itself", ErrInvalidGuardian)
	case owner:
		return fmt.Errorf("%w: %s", ErrGuardianCanNotBeOwner, addr)
	}
	return nil
}

// Add schedules [addr]. The first [Policy.Immediate] guardians are active
// right away, any further ones after [Policy.Delay].
func (s *Set) Add(owner common.Address, addr common.Address) (storage.Guardian, error) {
	if err := s.check(owner, addr); err != nil {
		return storage.Guardian{}, err
	}
	if _, ok := s.find(addr); ok {
		return storage.Guardian{}, fmt.Errorf("%w: %s", ErrGuardianExists, addr)
	}
	if len(s.entries) >= s.policy.Max {
		return storage.Guardian{}, fmt.Errorf("%w: %d", ErrTooManyGuardians, len(s.entries))
	}
	g := storage.Guardian{Addr: addr, Status: storage.Active, EffectiveTime: s.now, ActiveSince: s.now}
	if len(s.entries) >= s.policy.Immediate {
		g.Status = storage.PendingAdd
		g.EffectiveTime = s.now + s.policy.Delay
		g.ActiveSince = g.EffectiveTime
	}
	s.insert(g)
	return g, nil
}

// Remove schedules the removal of [addr] after [Policy.Delay]. A guardian
// whose addition has not matured is removed on the same schedule but
// never starts counting toward the quorum.
func (s *Set) Remove(addr common.Address) (storage.Guardian, error) {
	i, ok := s.find(addr)
	if !ok {
		return storage.Guardian{}, fmt.Errorf("%w: %s", ErrGuardianNotFound, addr)
	}
	g := s.entries[i]
	if g.Status == storage.PendingRemove {
		return storage.Guardian{}, fmt.Errorf("%w: %s", ErrRemovalPending, addr)
	}
	pendingAdd := g.Status == storage.PendingAdd
	g.Status = storage.PendingRemove
	g.EffectiveTime = s.now + s.policy.Delay
	if pendingAdd {
		g.ActiveSince = g.EffectiveTime
	}
	s.entries[i] = g
	return g, nil
}

// Reset moves towards [addrs] using the standard delays: guardians not in
// [addrs] are scheduled for removal, new ones are added in order.
func (s *Set) Reset(owner common.Address, addrs []common.Address) ([]storage.Guardian, error) {
	if err := codec.VerifyAscending(addrs); err != nil {
		return nil, err
	}
	want := make(map[common.Address]struct{}, len(addrs))
	for _, a := range addrs {
		want[a] = struct{}{}
	}
	changes := []storage.Guardian{}
	for _, g := range s.Guardians(true) {
		if _, ok := want[g.Addr]; ok || g.Status == storage.PendingRemove {
			continue
		}
		c, err := s.Remove(g.Addr)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	for _, a := range addrs {
		if i, ok := s.find(a); ok {
			// Scheduled to leave but requested again: keep it. One that
			// never became active is added again with the standard delay.
			g := s.entries[i]
			if g.Status == storage.PendingRemove {
				if s.active(g) {
					g.Status = storage.Active
					g.EffectiveTime = s.now
				} else {
					g.Status = storage.PendingAdd
					g.EffectiveTime = s.now + s.policy.Delay
					g.ActiveSince = g.EffectiveTime
				}
				s.entries[i] = g
				changes = append(changes, g)
			}
			continue
		}
		c, err := s.Add(owner, a)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, nil
}

// Replace installs [addrs] as active guardians immediately, dropping every
// existing entry. Used by recovery.
func (s *Set) Replace(owner common.Address, addrs []common.Address) ([]storage.Guardian, error) {
	if err := codec.VerifyAscending(addrs); err != nil {
		return nil, err
	}
	if len(addrs) > s.policy.Max {
		return nil, fmt.Errorf("%w: %d", ErrTooManyGuardians, len(addrs))
	}
	entries := make([]storage.Guardian, 0, len(addrs))
	for _, a := range addrs {
		if err := s.check(owner, a); err != nil {
			return nil, err
		}
		entries = append(entries, storage.Guardian{Addr: a, Status: storage.Active, EffectiveTime: s.now, ActiveSince: s.now})
	}
	s.entries = entries
	return append([]storage.Guardian{}, entries...), nil
}

// Drop removes [addr] immediately, returning false if it was not present.
func (s *Set) Drop(addr common.Address) bool {
	i, ok := s.find(addr)
	if ok {
		s.delete(i)
	}
	return ok
}

// Clear removes every guardian immediately.
func (s *Set) Clear() {
	s.entries = s.entries[:0]
}

// IsGuardian is a convenience wrapper around [Load].
func IsGuardian(
	ctx context.Context,
	im state.Immutable,
	policy Policy,
	wallet common.Address,
	addr common.Address,
	includePending bool,
	now int64,
) (bool, error) {
	s, err := Load(ctx, im, policy, wallet, now)
	if err != nil {
		return false, err
	}
	return s.IsGuardian(addr, includePending), nil
}
