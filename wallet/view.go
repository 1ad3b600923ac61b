// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/guardianwallet/auth"
	"github.com/ava-labs/guardianwallet/state"
	"github.com/ava-labs/guardianwallet/storage"
)

var (
	_ auth.AccountView = (*accountView)(nil)
	_ state.Immutable  = (*dbReader)(nil)
)

// accountView resolves signers that are themselves wallets: such a signer
// signs through its current owner.
type accountView struct {
	im state.Immutable
}

func (v *accountView) IsAccount(ctx context.Context, addr common.Address) (bool, error) {
	return storage.AccountExists(ctx, v.im, addr)
}

func (v *accountView) IsManager(ctx context.Context, account common.Address, candidate common.Address) (bool, error) {
	acct, err := storage.GetAccount(ctx, v.im, account)
	if err != nil {
		return false, err
	}
	return acct.Owner == candidate, nil
}

// dbReader reads committed state directly.
type dbReader struct {
	db state.Database
}

func (r *dbReader) GetValue(_ context.Context, key []byte) ([]byte, error) {
	return r.db.Get(key)
}

// signerKeys are the account records [auth.AccountView] may read while
// verifying signatures from [signers].
func signerKeys(signers ...common.Address) state.Keys {
	keys := make(state.Keys, len(signers))
	for _, s := range signers {
		keys.Add(string(storage.AccountKey(s)), state.Read)
	}
	return keys
}
