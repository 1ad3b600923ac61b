// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/state"
)

// IsApprovalHashUsed reports whether [digest] was already consumed by
// [wallet]. Records are never removed.
func IsApprovalHashUsed(
	ctx context.Context,
	im state.Immutable,
	wallet common.Address,
	digest common.Hash,
) (bool, error) {
	_, err := im.GetValue(ctx, ApprovalKey(wallet, digest))
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// SetApprovalHashUsed records [digest] as consumed at [now].
func SetApprovalHashUsed(
	ctx context.Context,
	mu state.Mutable,
	wallet common.Address,
	digest common.Hash,
	now int64,
) error {
	p := codec.NewWriter(consts.Int64Len, consts.Int64Len)
	p.PackInt64(now)
	return mu.Insert(ctx, ApprovalKey(wallet, digest), p.Bytes())
}
