// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/eip712"
	"github.com/ava-labs/guardianwallet/event"
	"github.com/ava-labs/guardianwallet/state"
	"github.com/ava-labs/guardianwallet/storage"
)

var (
	_ Action = (*ApproveToken)(nil)
	_ Action = (*TransferToken)(nil)
	_ Action = (*CallContract)(nil)
	_ Action = (*ApproveThenCallContract)(nil)
)

// approve sets the allowance of [spender] and charges quota for any
// increase over the previous allowance.
func approve(ctx context.Context, c *Context, token common.Address, spender common.Address, amount *uint256.Int) error {
	if token == codec.EmptyAddress {
		return ErrInvalidToken
	}
	if err := checkTarget(c.Wallet, spender); err != nil {
		return err
	}
	amount = amountOrZero(amount)
	prev, err := storage.GetAllowance(ctx, c.State, c.Wallet, token, spender)
	if err != nil {
		return err
	}
	if amount.Gt(prev) {
		if err := c.charge(ctx, spender, token, new(uint256.Int).Sub(amount, prev)); err != nil {
			return err
		}
	}
	if err := storage.SetAllowance(ctx, c.State, c.Wallet, token, spender, amount); err != nil {
		return err
	}
	c.Log.Emit(event.TokenApproved, spender, amount, c.Timestamp)
	return nil
}

// call moves [value] of the native asset to [to] alongside [data].
func call(ctx context.Context, c *Context, to common.Address, value *uint256.Int, data []byte) error {
	if err := checkTarget(c.Wallet, to); err != nil {
		return err
	}
	if err := checkData(data); err != nil {
		return err
	}
	value = amountOrZero(value)
	if !value.IsZero() {
		if err := c.chargeValue(ctx, to, value); err != nil {
			return err
		}
		if err := move(ctx, c.State, c.Wallet, to, codec.EmptyAddress, value); err != nil {
			return err
		}
	}
	c.Log.Emit(event.ContractCalled, to, value, c.Timestamp)
	return nil
}

func move(ctx context.Context, mu state.Mutable, from, to, token common.Address, amount *uint256.Int) error {
	if _, err := storage.SubBalance(ctx, mu, from, token, amount); err != nil {
		return err
	}
	_, err := storage.AddBalance(ctx, mu, to, token, amount)
	return err
}

func spendKeys(wallet, to, token common.Address) state.Keys {
	return state.Keys{
		string(storage.BalanceKey(wallet, token)): state.All,
		string(storage.BalanceKey(to, token)):     state.All,
		string(storage.WhitelistKey(wallet, to)):  state.Read,
	}
}

type ApproveToken struct {
	Token  common.Address `json:"token"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

func (*ApproveToken) GetTypeID() uint8 {
	return consts.ApproveTokenID
}

func (*ApproveToken) Schema() eip712.Schema {
	return eip712.Schema{
		Name: "ApproveToken",
		Fields: []apitypes.Type{
			{Name: "token", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "amount", Type: "uint256"},
		},
	}
}

func (a *ApproveToken) Values() map[string]interface{} {
	return map[string]interface{}{
		"token":  eip712.Address(a.Token),
		"to":     eip712.Address(a.To),
		"amount": eip712.Uint256(a.Amount),
	}
}

func (*ApproveToken) Paths() Path {
	return BothPaths
}

func (*ApproveToken) RequiresOwner() bool {
	return true
}

func (a *ApproveToken) StateKeys(wallet common.Address) state.Keys {
	return state.Keys{
		string(storage.AllowanceKey(wallet, a.Token, a.To)): state.All,
		string(storage.WhitelistKey(wallet, a.To)):          state.Read,
	}
}

func (a *ApproveToken) Marshal(p *codec.Packer) {
	p.PackAddress(a.Token)
	p.PackAddress(a.To)
	p.PackUint256(a.Amount)
}

func UnmarshalApproveToken(p *codec.Packer) (Action, error) {
	var a ApproveToken
	p.UnpackAddress(true, &a.Token)
	p.UnpackAddress(true, &a.To)
	a.Amount = p.UnpackUint256(false)
	return &a, p.Err()
}

func (a *ApproveToken) Execute(ctx context.Context, c *Context) error {
	return approve(ctx, c, a.Token, a.To, a.Amount)
}

type TransferToken struct {
	// Token is the asset to move; the zero address is the native asset.
	Token   common.Address `json:"token"`
	To      common.Address `json:"to"`
	Amount  *uint256.Int   `json:"amount"`
	Logdata hexutil.Bytes  `json:"logdata"`
}

func (*TransferToken) GetTypeID() uint8 {
	return consts.TransferTokenID
}

func (*TransferToken) Schema() eip712.Schema {
	return eip712.Schema{
		Name: "TransferToken",
		Fields: []apitypes.Type{
			{Name: "token", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "amount", Type: "uint256"},
			{Name: "logdata", Type: "bytes"},
		},
	}
}

func (t *TransferToken) Values() map[string]interface{} {
	return map[string]interface{}{
		"token":   eip712.Address(t.Token),
		"to":      eip712.Address(t.To),
		"amount":  eip712.Uint256(t.Amount),
		"logdata": eip712.Bytes(t.Logdata),
	}
}

func (*TransferToken) Paths() Path {
	return BothPaths
}

func (*TransferToken) RequiresOwner() bool {
	return true
}

func (t *TransferToken) StateKeys(wallet common.Address) state.Keys {
	return spendKeys(wallet, t.To, t.Token)
}

func (t *TransferToken) Marshal(p *codec.Packer) {
	p.PackAddress(t.Token)
	p.PackAddress(t.To)
	p.PackUint256(t.Amount)
	p.PackBytes(t.Logdata)
}

func UnmarshalTransferToken(p *codec.Packer) (Action, error) {
	var t TransferToken
	p.UnpackAddress(false, &t.Token)
	p.UnpackAddress(true, &t.To)
	t.Amount = p.UnpackUint256(true)
	var logdata []byte
	p.UnpackBytes(MaxDataSize, false, &logdata)
	t.Logdata = logdata
	return &t, p.Err()
}

func (t *TransferToken) Execute(ctx context.Context, c *Context) error {
	if t.Amount == nil || t.Amount.IsZero() {
		return ErrOutputValueZero
	}
	if err := checkTarget(c.Wallet, t.To); err != nil {
		return err
	}
	if err := checkData(t.Logdata); err != nil {
		return err
	}
	if err := c.charge(ctx, t.To, t.Token, t.Amount); err != nil {
		return err
	}
	if err := move(ctx, c.State, c.Wallet, t.To, t.Token, t.Amount); err != nil {
		return err
	}
	c.Log.Emit(event.TokenTransferred, t.To, t.Amount, c.Timestamp)
	return nil
}

type CallContract struct {
	To    common.Address `json:"to"`
	Value *uint256.Int   `json:"value"`
	Data  hexutil.Bytes  `json:"data"`
}

func (*CallContract) GetTypeID() uint8 {
	return consts.CallContractID
}

func (*CallContract) Schema() eip712.Schema {
	return eip712.Schema{
		Name: "CallContract",
		Fields: []apitypes.Type{
			{Name: "to", Type: "address"},
			{Name: "value", Type: "uint256"},
			{Name: "data", Type: "bytes"},
		},
	}
}

func (cc *CallContract) Values() map[string]interface{} {
	return map[string]interface{}{
		"to":    eip712.Address(cc.To),
		"value": eip712.Uint256(cc.Value),
		"data":  eip712.Bytes(cc.Data),
	}
}

func (*CallContract) Paths() Path {
	return BothPaths
}

func (*CallContract) RequiresOwner() bool {
	return true
}

func (cc *CallContract) StateKeys(wallet common.Address) state.Keys {
	return spendKeys(wallet, cc.To, codec.EmptyAddress)
}

func (cc *CallContract) Marshal(p *codec.Packer) {
	p.PackAddress(cc.To)
	p.PackUint256(cc.Value)
	p.PackBytes(cc.Data)
}

func UnmarshalCallContract(p *codec.Packer) (Action, error) {
	var cc CallContract
	p.UnpackAddress(true, &cc.To)
	cc.Value = p.UnpackUint256(false)
	var data []byte
	p.UnpackBytes(MaxDataSize, false, &data)
	cc.Data = data
	return &cc, p.Err()
}

func (cc *CallContract) Execute(ctx context.Context, c *Context) error {
	return call(ctx, c, cc.To, cc.Value, cc.Data)
}

type ApproveThenCallContract struct {
	Token  common.Address `json:"token"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
	Value  *uint256.Int   `json:"value"`
	Data   hexutil.Bytes  `json:"data"`
}

func (*ApproveThenCallContract) GetTypeID() uint8 {
	return consts.ApproveThenCallContractID
}

func (*ApproveThenCallContract) Schema() eip712.Schema {
	return eip712.Schema{
		Name: "ApproveThenCallContract",
		Fields: []apitypes.Type{
			{Name: "token", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "amount", Type: "uint256"},
			{Name: "value", Type: "uint256"},
			{Name: "data", Type: "bytes"},
		},
	}
}

func (a *ApproveThenCallContract) Values() map[string]interface{} {
	return map[string]interface{}{
		"token":  eip712.Address(a.Token),
		"to":     eip712.Address(a.To),
		"amount": eip712.Uint256(a.Amount),
		"value":  eip712.Uint256(a.Value),
		"data":   eip712.Bytes(a.Data),
	}
}

func (*ApproveThenCallContract) Paths() Path {
	return BothPaths
}

func (*ApproveThenCallContract) RequiresOwner() bool {
	return true
}

func (a *ApproveThenCallContract) StateKeys(wallet common.Address) state.Keys {
	keys := spendKeys(wallet, a.To, codec.EmptyAddress)
	keys.Add(string(storage.AllowanceKey(wallet, a.Token, a.To)), state.All)
	return keys
}

func (a *ApproveThenCallContract) Marshal(p *codec.Packer) {
	p.PackAddress(a.Token)
	p.PackAddress(a.To)
	p.PackUint256(a.Amount)
	p.PackUint256(a.Value)
	p.PackBytes(a.Data)
}

func UnmarshalApproveThenCallContract(p *codec.Packer) (Action, error) {
	var a ApproveThenCallContract
	p.UnpackAddress(true, &a.Token)
	p.UnpackAddress(true, &a.To)
	a.Amount = p.UnpackUint256(false)
	a.Value = p.UnpackUint256(false)
	var data []byte
	p.UnpackBytes(MaxDataSize, false, &data)
	a.Data = data
	return &a, p.Err()
}

func (a *ApproveThenCallContract) Execute(ctx context.Context, c *Context) error {
	if err := approve(ctx, c, a.Token, a.To, a.Amount); err != nil {
		return err
	}
	return call(ctx, c, a.To, a.Value, a.Data)
}
