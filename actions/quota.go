// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/eip712"
	"github.com/ava-labs/guardianwallet/event"
	"github.com/ava-labs/guardianwallet/quota"
	"github.com/ava-labs/guardianwallet/state"
	"github.com/ava-labs/guardianwallet/storage"
)

var (
	_ Action = (*ChangeDailyQuota)(nil)
	_ Action = (*AddToWhitelist)(nil)
	_ Action = (*RemoveFromWhitelist)(nil)
)

// ChangeDailyQuota applies immediately when approved by guardians.
// Owner-signed increases wait for the quota delay.
type ChangeDailyQuota struct {
	NewQuota *uint256.Int `json:"newQuota"`
}

func (*ChangeDailyQuota) GetTypeID() uint8 {
	return consts.ChangeDailyQuotaID
}

func (*ChangeDailyQuota) Schema() eip712.Schema {
	return eip712.Schema{
		Name:   "ChangeDailyQuota",
		Fields: []apitypes.Type{{Name: "newQuota", Type: "uint256"}},
	}
}

func (q *ChangeDailyQuota) Values() map[string]interface{} {
	return map[string]interface{}{"newQuota": eip712.Uint256(q.NewQuota)}
}

func (*ChangeDailyQuota) Paths() Path {
	return BothPaths
}

func (*ChangeDailyQuota) RequiresOwner() bool {
	return true
}

func (*ChangeDailyQuota) StateKeys(common.Address) state.Keys {
	return state.Keys{}
}

func (q *ChangeDailyQuota) Marshal(p *codec.Packer) {
	p.PackUint256(q.NewQuota)
}

func UnmarshalChangeDailyQuota(p *codec.Packer) (Action, error) {
	return &ChangeDailyQuota{NewQuota: p.UnpackUint256(false)}, p.Err()
}

func (q *ChangeDailyQuota) Execute(ctx context.Context, c *Context) error {
	newQuota := amountOrZero(q.NewQuota)
	effectiveTime, err := quota.ChangeDailyQuota(
		ctx,
		c.State,
		c.Rules.QuotaPolicy(),
		c.Wallet,
		newQuota,
		c.Path == ApprovalPath,
		c.Timestamp,
	)
	if err != nil {
		return err
	}
	c.Log.Emit(event.QuotaChanged, codec.EmptyAddress, newQuota, effectiveTime)
	return nil
}

type AddToWhitelist struct {
	Addr common.Address `json:"addr"`
}

func (*AddToWhitelist) GetTypeID() uint8 {
	return consts.AddToWhitelistID
}

func (*AddToWhitelist) Schema() eip712.Schema {
	return eip712.Schema{
		Name:   "AddToWhitelist",
		Fields: []apitypes.Type{{Name: "addr", Type: "address"}},
	}
}

func (w *AddToWhitelist) Values() map[string]interface{} {
	return map[string]interface{}{"addr": eip712.Address(w.Addr)}
}

func (*AddToWhitelist) Paths() Path {
	return BothPaths
}

func (*AddToWhitelist) RequiresOwner() bool {
	return true
}

func (w *AddToWhitelist) StateKeys(wallet common.Address) state.Keys {
	return state.Keys{string(storage.WhitelistKey(wallet, w.Addr)): state.All}
}

func (w *AddToWhitelist) Marshal(p *codec.Packer) {
	p.PackAddress(w.Addr)
}

func UnmarshalAddToWhitelist(p *codec.Packer) (Action, error) {
	var w AddToWhitelist
	p.UnpackAddress(true, &w.Addr)
	return &w, p.Err()
}

func (w *AddToWhitelist) Execute(ctx context.Context, c *Context) error {
	effectiveTime, err := quota.AddToWhitelist(
		ctx,
		c.State,
		c.Rules.QuotaPolicy(),
		c.Wallet,
		w.Addr,
		c.Path == ApprovalPath,
		c.Timestamp,
	)
	if err != nil {
		return err
	}
	c.Log.Emit(event.WhitelistAdded, w.Addr, nil, effectiveTime)
	return nil
}

type RemoveFromWhitelist struct {
	Addr common.Address `json:"addr"`
}

func (*RemoveFromWhitelist) GetTypeID() uint8 {
	return consts.RemoveFromWhitelistID
}

func (*RemoveFromWhitelist) Schema() eip712.Schema {
	return eip712.Schema{
		Name:   "RemoveFromWhitelist",
		Fields: []apitypes.Type{{Name: "addr", Type: "address"}},
	}
}

func (w *RemoveFromWhitelist) Values() map[string]interface{} {
	return map[string]interface{}{"addr": eip712.Address(w.Addr)}
}

func (*RemoveFromWhitelist) Paths() Path {
	return BothPaths
}

func (*RemoveFromWhitelist) RequiresOwner() bool {
	return true
}

func (w *RemoveFromWhitelist) StateKeys(wallet common.Address) state.Keys {
	return state.Keys{string(storage.WhitelistKey(wallet, w.Addr)): state.All}
}

func (w *RemoveFromWhitelist) Marshal(p *codec.Packer) {
	p.PackAddress(w.Addr)
}

func UnmarshalRemoveFromWhitelist(p *codec.Packer) (Action, error) {
	var w RemoveFromWhitelist
	p.UnpackAddress(true, &w.Addr)
	return &w, p.Err()
}

func (w *RemoveFromWhitelist) Execute(ctx context.Context, c *Context) error {
	if err := quota.RemoveFromWhitelist(ctx, c.State, c.Wallet, w.Addr); err != nil {
		return err
	}
	c.Log.Emit(event.WhitelistRemoved, w.Addr, nil, c.Timestamp)
	return nil
}
