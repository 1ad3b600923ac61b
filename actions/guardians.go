// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/eip712"
	"github.com/ava-labs/guardianwallet/event"
	"github.com/ava-labs/guardianwallet/state"
	"github.com/ava-labs/guardianwallet/storage"
)

var (
	_ Action = (*AddGuardian)(nil)
	_ Action = (*RemoveGuardian)(nil)
	_ Action = (*ResetGuardians)(nil)
)

func emitGuardianChange(l *event.Log, g storage.Guardian) {
	switch g.Status {
	case storage.PendingRemove:
		l.Emit(event.GuardianRemoved, g.Addr, nil, g.EffectiveTime)
	default:
		l.Emit(event.GuardianAdded, g.Addr, nil, g.EffectiveTime)
	}
}

// AddGuardian follows the same delay rule on both paths.
type AddGuardian struct {
	Guardian common.Address `json:"guardian"`
}

func (*AddGuardian) GetTypeID() uint8 {
	return consts.AddGuardianID
}

func (*AddGuardian) Schema() eip712.Schema {
	return eip712.Schema{
		Name:   "AddGuardian",
		Fields: []apitypes.Type{{Name: "guardian", Type: "address"}},
	}
}

func (a *AddGuardian) Values() map[string]interface{} {
	return map[string]interface{}{"guardian": eip712.Address(a.Guardian)}
}

func (*AddGuardian) Paths() Path {
	return BothPaths
}

func (*AddGuardian) RequiresOwner() bool {
	return true
}

func (*AddGuardian) StateKeys(common.Address) state.Keys {
	return state.Keys{}
}

func (a *AddGuardian) Marshal(p *codec.Packer) {
	p.PackAddress(a.Guardian)
}

func UnmarshalAddGuardian(p *codec.Packer) (Action, error) {
	var a AddGuardian
	p.UnpackAddress(true, &a.Guardian)
	return &a, p.Err()
}

func (a *AddGuardian) Execute(_ context.Context, c *Context) error {
	g, err := c.Guardians.Add(c.Account.Owner, a.Guardian)
	if err != nil {
		return err
	}
	emitGuardianChange(c.Log, g)
	return nil
}

type RemoveGuardian struct {
	Guardian common.Address `json:"guardian"`
}

func (*RemoveGuardian) GetTypeID() uint8 {
	return consts.RemoveGuardianID
}

func (*RemoveGuardian) Schema() eip712.Schema {
	return eip712.Schema{
		Name:   "RemoveGuardian",
		Fields: []apitypes.Type{{Name: "guardian", Type: "address"}},
	}
}

func (r *RemoveGuardian) Values() map[string]interface{} {
	return map[string]interface{}{"guardian": eip712.Address(r.Guardian)}
}

func (*RemoveGuardian) Paths() Path {
	return BothPaths
}

func (*RemoveGuardian) RequiresOwner() bool {
	return true
}

func (*RemoveGuardian) StateKeys(common.Address) state.Keys {
	return state.Keys{}
}

func (r *RemoveGuardian) Marshal(p *codec.Packer) {
	p.PackAddress(r.Guardian)
}

func UnmarshalRemoveGuardian(p *codec.Packer) (Action, error) {
	var r RemoveGuardian
	p.UnpackAddress(true, &r.Guardian)
	return &r, p.Err()
}

func (r *RemoveGuardian) Execute(_ context.Context, c *Context) error {
	g, err := c.Guardians.Remove(r.Guardian)
	if err != nil {
		return err
	}
	emitGuardianChange(c.Log, g)
	return nil
}

// ResetGuardians moves the set towards [Guardians] under the standard
// delays. Only recovery replaces guardians immediately.
type ResetGuardians struct {
	Guardians []common.Address `json:"guardians"`
}

func (*ResetGuardians) GetTypeID() uint8 {
	return consts.ResetGuardiansID
}

func (*ResetGuardians) Schema() eip712.Schema {
	return eip712.Schema{
		Name:   "ResetGuardians",
		Fields: []apitypes.Type{{Name: "guardians", Type: "address[]"}},
	}
}

func (r *ResetGuardians) Values() map[string]interface{} {
	return map[string]interface{}{"guardians": eip712.Addresses(r.Guardians)}
}

func (*ResetGuardians) Paths() Path {
	return BothPaths
}

func (*ResetGuardians) RequiresOwner() bool {
	return true
}

func (*ResetGuardians) StateKeys(common.Address) state.Keys {
	return state.Keys{}
}

func (r *ResetGuardians) Marshal(p *codec.Packer) {
	p.PackAddresses(r.Guardians)
}

func UnmarshalResetGuardians(p *codec.Packer) (Action, error) {
	var r ResetGuardians
	p.UnpackAddresses(consts.MaxGuardians, false, &r.Guardians)
	return &r, p.Err()
}

func (r *ResetGuardians) Execute(_ context.Context, c *Context) error {
	changes, err := c.Guardians.Reset(c.Account.Owner, r.Guardians)
	if err != nil {
		return err
	}
	for _, g := range changes {
		emitGuardianChange(c.Log, g)
	}
	return nil
}
