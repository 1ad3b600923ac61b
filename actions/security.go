// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/eip712"
	"github.com/ava-labs/guardianwallet/event"
	"github.com/ava-labs/guardianwallet/security"
	"github.com/ava-labs/guardianwallet/state"
)

var (
	_ Action = (*ChangeMasterCopy)(nil)
	_ Action = (*Recover)(nil)
	_ Action = (*Unlock)(nil)
	_ Action = (*SetInheritor)(nil)
)

// ChangeMasterCopy swaps the wallet's logic identity. Every signature made
// against the old identity stops verifying.
type ChangeMasterCopy struct {
	MasterCopy common.Address `json:"masterCopy"`
}

func (*ChangeMasterCopy) GetTypeID() uint8 {
	return consts.ChangeMasterCopyID
}

func (*ChangeMasterCopy) Schema() eip712.Schema {
	return eip712.Schema{
		Name:   "ChangeMasterCopy",
		Fields: []apitypes.Type{{Name: "masterCopy", Type: "address"}},
	}
}

func (m *ChangeMasterCopy) Values() map[string]interface{} {
	return map[string]interface{}{"masterCopy": eip712.Address(m.MasterCopy)}
}

func (*ChangeMasterCopy) Paths() Path {
	return ApprovalPath
}

func (*ChangeMasterCopy) RequiresOwner() bool {
	return true
}

func (*ChangeMasterCopy) StateKeys(common.Address) state.Keys {
	return state.Keys{}
}

func (m *ChangeMasterCopy) Marshal(p *codec.Packer) {
	p.PackAddress(m.MasterCopy)
}

func UnmarshalChangeMasterCopy(p *codec.Packer) (Action, error) {
	var m ChangeMasterCopy
	p.UnpackAddress(true, &m.MasterCopy)
	return &m, p.Err()
}

func (m *ChangeMasterCopy) Execute(_ context.Context, c *Context) error {
	if m.MasterCopy == codec.EmptyAddress || m.MasterCopy == c.Account.MasterCopy {
		return fmt.Errorf("%w: %s", ErrInvalidMasterCopy, m.MasterCopy)
	}
	c.Account.MasterCopy = m.MasterCopy
	c.Log.Emit(event.MasterCopyChanged, m.MasterCopy, nil, c.Timestamp)
	return nil
}

// Recover is authorized by guardians alone and leaves the lock untouched.
type Recover struct {
	NewOwner     common.Address   `json:"newOwner"`
	NewGuardians []common.Address `json:"newGuardians"`
}

func (*Recover) GetTypeID() uint8 {
	return consts.RecoverID
}

func (*Recover) Schema() eip712.Schema {
	return eip712.Schema{
		Name: "Recover",
		Fields: []apitypes.Type{
			{Name: "newOwner", Type: "address"},
			{Name: "newGuardians", Type: "address[]"},
		},
	}
}

func (r *Recover) Values() map[string]interface{} {
	return map[string]interface{}{
		"newOwner":     eip712.Address(r.NewOwner),
		"newGuardians": eip712.Addresses(r.NewGuardians),
	}
}

func (*Recover) Paths() Path {
	return ApprovalPath
}

func (*Recover) RequiresOwner() bool {
	return false
}

func (*Recover) StateKeys(common.Address) state.Keys {
	return state.Keys{}
}

func (r *Recover) Marshal(p *codec.Packer) {
	p.PackAddress(r.NewOwner)
	p.PackAddresses(r.NewGuardians)
}

func UnmarshalRecover(p *codec.Packer) (Action, error) {
	var r Recover
	p.UnpackAddress(true, &r.NewOwner)
	p.UnpackAddresses(consts.MaxGuardians, false, &r.NewGuardians)
	return &r, p.Err()
}

func (r *Recover) Execute(_ context.Context, c *Context) error {
	removed, err := security.Recover(c.Account, c.Guardians, r.NewOwner, r.NewGuardians)
	if err != nil {
		return err
	}
	c.Log.Emit(event.Recovered, r.NewOwner, nil, c.Timestamp)
	for _, g := range removed {
		c.Log.Emit(event.GuardianRemoved, g, nil, c.Timestamp)
	}
	for _, g := range r.NewGuardians {
		c.Log.Emit(event.GuardianAdded, g, nil, c.Timestamp)
	}
	return nil
}

type Unlock struct{}

func (*Unlock) GetTypeID() uint8 {
	return consts.UnlockID
}

func (*Unlock) Schema() eip712.Schema {
	return eip712.Schema{Name: "Unlock"}
}

func (*Unlock) Values() map[string]interface{} {
	return map[string]interface{}{}
}

func (*Unlock) Paths() Path {
	return ApprovalPath
}

func (*Unlock) RequiresOwner() bool {
	return true
}

func (*Unlock) StateKeys(common.Address) state.Keys {
	return state.Keys{}
}

func (*Unlock) Marshal(*codec.Packer) {}

func UnmarshalUnlock(p *codec.Packer) (Action, error) {
	return &Unlock{}, p.Err()
}

func (*Unlock) Execute(_ context.Context, c *Context) error {
	if security.Unlock(c.Account) {
		c.Log.Emit(event.Unlocked, codec.EmptyAddress, nil, c.Timestamp)
	}
	return nil
}

// SetInheritor is owner-only: guardians can not pick who inherits.
type SetInheritor struct {
	Inheritor common.Address `json:"inheritor"`
	// WaitingPeriod is in seconds.
	WaitingPeriod int64 `json:"waitingPeriod"`
}

func (*SetInheritor) GetTypeID() uint8 {
	return consts.SetInheritorID
}

func (*SetInheritor) Schema() eip712.Schema {
	return eip712.Schema{
		Name: "SetInheritor",
		Fields: []apitypes.Type{
			{Name: "inheritor", Type: "address"},
			{Name: "waitingPeriod", Type: "uint256"},
		},
	}
}

func (s *SetInheritor) Values() map[string]interface{} {
	return map[string]interface{}{
		"inheritor":     eip712.Address(s.Inheritor),
		"waitingPeriod": big.NewInt(s.WaitingPeriod),
	}
}

func (*SetInheritor) Paths() Path {
	return NormalPath
}

func (*SetInheritor) RequiresOwner() bool {
	return true
}

func (*SetInheritor) StateKeys(common.Address) state.Keys {
	return state.Keys{}
}

func (s *SetInheritor) Marshal(p *codec.Packer) {
	p.PackAddress(s.Inheritor)
	p.PackInt64(s.WaitingPeriod)
}

func UnmarshalSetInheritor(p *codec.Packer) (Action, error) {
	var s SetInheritor
	p.UnpackAddress(false, &s.Inheritor)
	s.WaitingPeriod = p.UnpackInt64(false)
	return &s, p.Err()
}

func (s *SetInheritor) Execute(_ context.Context, c *Context) error {
	if err := security.SetInheritor(c.Rules.SecurityPolicy(), c.Account, c.Wallet, s.Inheritor, s.WaitingPeriod); err != nil {
		return err
	}
	c.Log.Emit(event.InheritorChanged, s.Inheritor, nil, security.InheritableAt(c.Account))
	return nil
}
