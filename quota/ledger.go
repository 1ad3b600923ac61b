// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quota

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/state"
	"github.com/ava-labs/guardianwallet/storage"
)

type Policy struct {
	// Delay before a quota increase takes effect on the normal path.
	Delay int64 `json:"delay" yaml:"delay"`
	// Window is how long spending accumulates, counted from the first
	// spend after the previous window lapsed.
	Window         int64 `json:"window"         yaml:"window"`
	WhitelistDelay int64 `json:"whitelistDelay" yaml:"whitelistDelay"`
}

func DefaultPolicy() Policy {
	return Policy{
		Delay:          consts.QuotaDelay,
		Window:         consts.QuotaWindow,
		WhitelistDelay: consts.WhitelistDelay,
	}
}

// PriceOracle values token amounts in the unit quotas are denominated in.
type PriceOracle interface {
	TokenValue(ctx context.Context, token common.Address, amount *uint256.Int) (*uint256.Int, error)
}

// EffectiveQuota resolves a pending change once it has matured.
func EffectiveQuota(q *storage.QuotaInfo, now int64) *uint256.Int {
	if q.PendingUntil != 0 && now >= q.PendingUntil {
		return new(uint256.Int).Set(q.Pending)
	}
	return new(uint256.Int).Set(q.Current)
}

// SpentInWindow is the amount spent within the window still open at
// [now].
func SpentInWindow(q *storage.QuotaInfo, window int64, now int64) *uint256.Int {
	if q.Spent == nil || now >= q.SpentResetTime+window {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(q.Spent)
}

// AvailableQuota is what may still be spent at [now]; never negative.
func AvailableQuota(q *storage.QuotaInfo, window int64, now int64) *uint256.Int {
	avail, underflow := new(uint256.Int).SubOverflow(EffectiveQuota(q, now), SpentInWindow(q, window, now))
	if underflow {
		return new(uint256.Int)
	}
	return avail
}

// ChangeDailyQuota sets a new quota and returns when it takes effect.
// Decreases and [immediate] changes apply now; increases wait
// [Policy.Delay].
func ChangeDailyQuota(
	ctx context.Context,
	mu state.Mutable,
	policy Policy,
	wallet common.Address,
	newQuota *uint256.Int,
	immediate bool,
	now int64,
) (int64, error) {
	q, err := storage.GetQuota(ctx, mu, wallet)
	if err != nil {
		return 0, err
	}
	current := EffectiveQuota(q, now)
	effectiveTime := now
	if immediate || newQuota.Cmp(current) <= 0 {
		q.Current = new(uint256.Int).Set(newQuota)
		q.Pending = new(uint256.Int)
		q.PendingUntil = 0
	} else {
		effectiveTime = now + policy.Delay
		q.Current = current
		q.Pending = new(uint256.Int).Set(newQuota)
		q.PendingUntil = effectiveTime
	}
	return effectiveTime, storage.SetQuota(ctx, mu, wallet, q)
}

// CheckAndConsume adds [value] to the spent amount of the current window
// or fails with [ErrQuotaExceeded]. A zero value never writes.
func CheckAndConsume(
	ctx context.Context,
	mu state.Mutable,
	policy Policy,
	wallet common.Address,
	value *uint256.Int,
	now int64,
) error {
	if value == nil || value.IsZero() {
		return nil
	}
	q, err := storage.GetQuota(ctx, mu, wallet)
	if err != nil {
		return err
	}
	available := AvailableQuota(q, policy.Window, now)
	if value.Cmp(available) > 0 {
		return fmt.Errorf("%w: value=%s available=%s", ErrQuotaExceeded, value, available)
	}
	// The window opens with the first spend after the previous one lapsed.
	spent := SpentInWindow(q, policy.Window, now)
	if spent.IsZero() {
		q.SpentResetTime = now
	}
	// available > 0 bounds spent+value by the effective quota
	q.Spent = spent.Add(spent, value)
	return storage.SetQuota(ctx, mu, wallet, q)
}

// Value converts [amount] of [token] to quota units. The native asset is
// counted one to one; other tokens need an oracle and count zero without
// one.
func Value(
	ctx context.Context,
	oracle PriceOracle,
	token common.Address,
	amount *uint256.Int,
) (*uint256.Int, error) {
	if amount == nil {
		return new(uint256.Int), nil
	}
	if token == codec.EmptyAddress {
		return new(uint256.Int).Set(amount), nil
	}
	if oracle == nil {
		return new(uint256.Int), nil
	}
	return oracle.TokenValue(ctx, token, amount)
}

// Charge consumes quota for moving [amount] of [token] to [to] unless [to]
// is whitelisted at [now].
func Charge(
	ctx context.Context,
	mu state.Mutable,
	policy Policy,
	oracle PriceOracle,
	wallet common.Address,
	to common.Address,
	token common.Address,
	amount *uint256.Int,
	now int64,
) error {
	whitelisted, err := IsWhitelisted(ctx, mu, wallet, to, now)
	if err != nil {
		return err
	}
	if whitelisted {
		return nil
	}
	value, err := Value(ctx, oracle, token, amount)
	if err != nil {
		return err
	}
	return CheckAndConsume(ctx, mu, policy, wallet, value, now)
}

// Snapshot is the quota state of a wallet as seen at a point in time.
type Snapshot struct {
	Effective    *uint256.Int `json:"effective"`
	Available    *uint256.Int `json:"available"`
	Spent        *uint256.Int `json:"spent"`
	Pending      *uint256.Int `json:"pending,omitempty"`
	PendingUntil int64        `json:"pendingUntil,omitempty"`
}

func Get(
	ctx context.Context,
	im state.Immutable,
	policy Policy,
	wallet common.Address,
	now int64,
) (*Snapshot, error) {
	q, err := storage.GetQuota(ctx, im, wallet)
	if err != nil {
		return nil, err
	}
	s := &Snapshot{
		Effective: EffectiveQuota(q, now),
		Available: AvailableQuota(q, policy.Window, now),
		Spent:     SpentInWindow(q, policy.Window, now),
	}
	if q.PendingUntil > now {
		s.Pending = new(uint256.Int).Set(q.Pending)
		s.PendingUntil = q.PendingUntil
	}
	return s, nil
}
