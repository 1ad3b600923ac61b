// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quota

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/state"
	"github.com/ava-labs/guardianwallet/storage"
)

// AddToWhitelist returns the time at which [addr] becomes whitelisted.
func AddToWhitelist(
	ctx context.Context,
	mu state.Mutable,
	policy Policy,
	wallet common.Address,
	addr common.Address,
	immediate bool,
	now int64,
) (int64, error) {
	if addr == codec.EmptyAddress || addr == wallet {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}
	_, exists, err := storage.GetWhitelist(ctx, mu, wallet, addr)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyWhitelisted, addr)
	}
	effectiveTime := now
	if !immediate {
		effectiveTime += policy.WhitelistDelay
	}
	return effectiveTime, storage.SetWhitelist(ctx, mu, wallet, addr, effectiveTime)
}

func RemoveFromWhitelist(
	ctx context.Context,
	mu state.Mutable,
	wallet common.Address,
	addr common.Address,
) error {
	_, exists, err := storage.GetWhitelist(ctx, mu, wallet, addr)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotWhitelisted, addr)
	}
	return storage.RemoveWhitelist(ctx, mu, wallet, addr)
}

func IsWhitelisted(
	ctx context.Context,
	im state.Immutable,
	wallet common.Address,
	addr common.Address,
	now int64,
) (bool, error) {
	effectiveTime, exists, err := storage.GetWhitelist(ctx, im, wallet, addr)
	if err != nil {
		return false, err
	}
	return exists && effectiveTime <= now, nil
}
