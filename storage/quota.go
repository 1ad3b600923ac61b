// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/state"
)

const quotaSize = 3*consts.Uint256Len + 2*consts.Int64Len

// QuotaInfo is the stored daily quota record of a wallet.
type QuotaInfo struct {
	Current        *uint256.Int `json:"current"`
	Pending        *uint256.Int `json:"pending"`
	PendingUntil   int64        `json:"pendingUntil"`
	Spent          *uint256.Int `json:"spent"`
	SpentResetTime int64        `json:"spentResetTime"`
}

func (q *QuotaInfo) Marshal() []byte {
	p := codec.NewWriter(quotaSize, quotaSize)
	p.PackUint256(q.Current)
	p.PackUint256(q.Pending)
	p.PackInt64(q.PendingUntil)
	p.PackUint256(q.Spent)
	p.PackInt64(q.SpentResetTime)
	return p.Bytes()
}

func UnmarshalQuota(b []byte) (*QuotaInfo, error) {
	p := codec.NewReader(b, quotaSize)
	q := &QuotaInfo{
		Current:      p.UnpackUint256(false),
		Pending:      p.UnpackUint256(false),
		PendingUntil: p.UnpackInt64(false),
		Spent:        p.UnpackUint256(false),
	}
	q.SpentResetTime = p.UnpackInt64(false)
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("%w: quota: %w", ErrInvalidRecord, err)
	}
	if !p.Empty() {
		return nil, fmt.Errorf("%w: quota: %w", ErrInvalidRecord, codec.ErrExtraBytes)
	}
	return q, nil
}

// GetQuota returns a zeroed record if [wallet] has none.
func GetQuota(
	ctx context.Context,
	im state.Immutable,
	wallet common.Address,
) (*QuotaInfo, error) {
	v, err := im.GetValue(ctx, QuotaKey(wallet))
	if errors.Is(err, database.ErrNotFound) {
		return &QuotaInfo{
			Current: new(uint256.Int),
			Pending: new(uint256.Int),
			Spent:   new(uint256.Int),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return UnmarshalQuota(v)
}

func SetQuota(
	ctx context.Context,
	mu state.Mutable,
	wallet common.Address,
	q *QuotaInfo,
) error {
	return mu.Insert(ctx, QuotaKey(wallet), q.Marshal())
}

// GetWhitelist returns the effective time of [addr] on the whitelist of
// [wallet] and whether the entry exists at all.
func GetWhitelist(
	ctx context.Context,
	im state.Immutable,
	wallet common.Address,
	addr common.Address,
) (int64, bool, error) {
	v, err := im.GetValue(ctx, WhitelistKey(wallet, addr))
	if errors.Is(err, database.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	p := codec.NewReader(v, consts.Int64Len)
	t := p.UnpackInt64(false)
	if err := p.Err(); err != nil {
		return 0, false, fmt.Errorf("%w: whitelist: %w", ErrInvalidRecord, err)
	}
	return t, true, nil
}

func SetWhitelist(
	ctx context.Context,
	mu state.Mutable,
	wallet common.Address,
	addr common.Address,
	effectiveTime int64,
) error {
	p := codec.NewWriter(consts.Int64Len, consts.Int64Len)
	p.PackInt64(effectiveTime)
	return mu.Insert(ctx, WhitelistKey(wallet, addr), p.Bytes())
}

func RemoveWhitelist(
	ctx context.Context,
	mu state.Mutable,
	wallet common.Address,
	addr common.Address,
) error {
	return mu.Remove(ctx, WhitelistKey(wallet, addr))
}
