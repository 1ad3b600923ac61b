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

// Balances and allowances back the ledger that token actions settle
// against. The zero token address is the native asset.

func getAmount(ctx context.Context, im state.Immutable, key []byte) (*uint256.Int, error) {
	v, err := im.GetValue(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	p := codec.NewReader(v, consts.Uint256Len)
	amt := p.UnpackUint256(false)
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("%w: amount: %w", ErrInvalidRecord, err)
	}
	return amt, nil
}

func setAmount(ctx context.Context, mu state.Mutable, key []byte, amt *uint256.Int) error {
	if amt.IsZero() {
		return mu.Remove(ctx, key)
	}
	p := codec.NewWriter(consts.Uint256Len, consts.Uint256Len)
	p.PackUint256(amt)
	return mu.Insert(ctx, key, p.Bytes())
}

func GetBalance(
	ctx context.Context,
	im state.Immutable,
	owner common.Address,
	token common.Address,
) (*uint256.Int, error) {
	return getAmount(ctx, im, BalanceKey(owner, token))
}

func SetBalance(
	ctx context.Context,
	mu state.Mutable,
	owner common.Address,
	token common.Address,
	amt *uint256.Int,
) error {
	return setAmount(ctx, mu, BalanceKey(owner, token), amt)
}

func AddBalance(
	ctx context.Context,
	mu state.Mutable,
	owner common.Address,
	token common.Address,
	amount *uint256.Int,
) (*uint256.Int, error) {
	bal, err := GetBalance(ctx, mu, owner, token)
	if err != nil {
		return nil, err
	}
	nbal, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return nil, fmt.Errorf(
			"%w: could not add balance (bal=%s, addr=%v, amount=%s)",
			ErrInvalidBalance,
			bal,
			owner,
			amount,
		)
	}
	return nbal, SetBalance(ctx, mu, owner, token, nbal)
}

func SubBalance(
	ctx context.Context,
	mu state.Mutable,
	owner common.Address,
	token common.Address,
	amount *uint256.Int,
) (*uint256.Int, error) {
	bal, err := GetBalance(ctx, mu, owner, token)
	if err != nil {
		return nil, err
	}
	nbal, underflow := new(uint256.Int).SubOverflow(bal, amount)
	if underflow {
		return nil, fmt.Errorf(
			"%w: could not subtract balance (bal=%s, addr=%v, amount=%s)",
			ErrInvalidBalance,
			bal,
			owner,
			amount,
		)
	}
	return nbal, SetBalance(ctx, mu, owner, token, nbal)
}

func GetAllowance(
	ctx context.Context,
	im state.Immutable,
	owner common.Address,
	token common.Address,
	spender common.Address,
) (*uint256.Int, error) {
	return getAmount(ctx, im, AllowanceKey(owner, token, spender))
}

func SetAllowance(
	ctx context.Context,
	mu state.Mutable,
	owner common.Address,
	token common.Address,
	spender common.Address,
	amt *uint256.Int,
) error {
	return setAmount(ctx, mu, AllowanceKey(owner, token, spender), amt)
}
