// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/state"
)

const accountSize = 3*consts.AddressLen + consts.BoolLen + consts.Uint64Len + 2*consts.Int64Len

// Account is the security state of a single wallet.
type Account struct {
	Owner      common.Address `json:"owner"`
	MasterCopy common.Address `json:"masterCopy"`
	Locked     bool           `json:"locked"`
	Nonce      uint64         `json:"nonce"`

	// LastActive is refreshed by any owner-initiated operation and gates
	// inheritance.
	LastActive           int64          `json:"lastActive"`
	Inheritor            common.Address `json:"inheritor"`
	InheritWaitingPeriod int64          `json:"inheritWaitingPeriod"`
}

func (a *Account) Marshal() []byte {
	p := codec.NewWriter(accountSize, accountSize)
	p.PackAddress(a.Owner)
	p.PackAddress(a.MasterCopy)
	p.PackBool(a.Locked)
	p.PackUint64(a.Nonce)
	p.PackInt64(a.LastActive)
	p.PackAddress(a.Inheritor)
	p.PackInt64(a.InheritWaitingPeriod)
	return p.Bytes()
}

func UnmarshalAccount(b []byte) (*Account, error) {
	p := codec.NewReader(b, accountSize)
	var a Account
	p.UnpackAddress(true, &a.Owner)
	p.UnpackAddress(false, &a.MasterCopy)
	a.Locked = p.UnpackBool()
	a.Nonce = p.UnpackUint64(false)
	a.LastActive = p.UnpackInt64(false)
	p.UnpackAddress(false, &a.Inheritor)
	a.InheritWaitingPeriod = p.UnpackInt64(false)
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("%w: account: %w", ErrInvalidRecord, err)
	}
	if !p.Empty() {
		return nil, fmt.Errorf("%w: account: %w", ErrInvalidRecord, codec.ErrExtraBytes)
	}
	return &a, nil
}

// GetAccount returns [ErrWalletNotFound] if [wallet] was never created.
func GetAccount(
	ctx context.Context,
	im state.Immutable,
	wallet common.Address,
) (*Account, error) {
	v, err := im.GetValue(ctx, AccountKey(wallet))
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, wallet)
	}
	if err != nil {
		return nil, err
	}
	return UnmarshalAccount(v)
}

// AccountExists reports whether [addr] is a wallet managed by this core.
func AccountExists(
	ctx context.Context,
	im state.Immutable,
	addr common.Address,
) (bool, error) {
	_, err := im.GetValue(ctx, AccountKey(addr))
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func SetAccount(
	ctx context.Context,
	mu state.Mutable,
	wallet common.Address,
	a *Account,
) error {
	return mu.Insert(ctx, AccountKey(wallet), a.Marshal())
}
