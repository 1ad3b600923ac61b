// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/eip712"
	"github.com/ava-labs/guardianwallet/event"
	"github.com/ava-labs/guardianwallet/guardian"
	"github.com/ava-labs/guardianwallet/quota"
	"github.com/ava-labs/guardianwallet/security"
	"github.com/ava-labs/guardianwallet/state"
	"github.com/ava-labs/guardianwallet/storage"
)

// MaxDataSize bounds calldata and transfer log data.
const MaxDataSize = 16 * 1024

// Path is the authorization route an operation arrived on.
type Path uint8

const (
	// NormalPath operations are signed by the owner over the next nonce.
	NormalPath Path = 1 << iota
	// ApprovalPath operations carry a guardian quorum.
	ApprovalPath

	BothPaths = NormalPath | ApprovalPath
)

func (p Path) String() string {
	switch p {
	case NormalPath:
		return "normal"
	case ApprovalPath:
		return "approval"
	case BothPaths:
		return "both"
	default:
		return fmt.Sprintf("Path(%d)", uint8(p))
	}
}

// Rules exposes the policy values actions are evaluated against.
type Rules interface {
	GuardianPolicy() guardian.Policy
	QuotaPolicy() quota.Policy
	SecurityPolicy() security.Policy
	// PriceOracle may be nil, in which case only the native asset counts
	// against the quota.
	PriceOracle() quota.PriceOracle
}

// Context is everything an action may read or change. [Account] and
// [Guardians] are persisted by the dispatcher after a successful
// [Action.Execute]; everything else goes through [State].
type Context struct {
	Rules     Rules
	State     state.Mutable
	Wallet    common.Address
	Account   *storage.Account
	Guardians *guardian.Set
	Path      Path
	Timestamp int64
	Log       *event.Log
}

// Action is a wallet operation.
type Action interface {
	GetTypeID() uint8
	// Schema describes the fields signers commit to.
	Schema() eip712.Schema
	// Values are the typed-data encoding of the action's fields.
	Values() map[string]interface{}
	// Paths lists where the action may be submitted.
	Paths() Path
	// RequiresOwner reports whether the approval path also needs the
	// owner's signature.
	RequiresOwner() bool
	// StateKeys are the keys beyond the wallet's own records that
	// Execute may touch.
	StateKeys(wallet common.Address) state.Keys
	Marshal(p *codec.Packer)
	Execute(ctx context.Context, c *Context) error
}

// charge consumes quota on the normal path. The approval path is already
// authorized by the guardians and is never limited.
func (c *Context) charge(ctx context.Context, to common.Address, token common.Address, amount *uint256.Int) error {
	if c.Path != NormalPath {
		return nil
	}
	return quota.Charge(
		ctx,
		c.State,
		c.Rules.QuotaPolicy(),
		c.Rules.PriceOracle(),
		c.Wallet,
		to,
		token,
		amount,
		c.Timestamp,
	)
}

// chargeValue consumes quota for an amount already expressed in quota
// units.
func (c *Context) chargeValue(ctx context.Context, to common.Address, value *uint256.Int) error {
	return c.charge(ctx, to, codec.EmptyAddress, value)
}

func checkTarget(wallet common.Address, to common.Address) error {
	if to == codec.EmptyAddress || to == wallet {
		return fmt.Errorf("%w: %s", ErrInvalidTarget, to)
	}
	return nil
}

func checkData(data []byte) error {
	if len(data) > MaxDataSize {
		return fmt.Errorf("%w: %d > %d", ErrDataTooLarge, len(data), MaxDataSize)
	}
	return nil
}

func amountOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
