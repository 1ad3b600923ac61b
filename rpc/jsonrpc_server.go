// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/ava-labs/guardianwallet/actions"
	"github.com/ava-labs/guardianwallet/approval"
	"github.com/ava-labs/guardianwallet/wallet"
)

type JSONRPCServer struct {
	d             *wallet.Dispatcher
	allowDeposits bool
}

func NewJSONRPCServer(d *wallet.Dispatcher, allowDeposits bool) *JSONRPCServer {
	return &JSONRPCServer{d: d, allowDeposits: allowDeposits}
}

type PingReply struct {
	Success bool `json:"success"`
}

func (*JSONRPCServer) Ping(_ *http.Request, _ *struct{}, reply *PingReply) error {
	reply.Success = true
	return nil
}

type ChainIDReply struct {
	ChainID *hexutil.Big `json:"chainId"`
}

func (j *JSONRPCServer) ChainID(_ *http.Request, _ *struct{}, reply *ChainIDReply) error {
	reply.ChainID = (*hexutil.Big)(j.d.ChainID())
	return nil
}

func (j *JSONRPCServer) Create(req *http.Request, args *wallet.CreateRequest, reply *wallet.Result) error {
	res, err := j.d.Create(req.Context(), args)
	if err != nil {
		return err
	}
	*reply = *res
	return nil
}

type ExecuteNormalArgs struct {
	Wallet    common.Address `json:"wallet"`
	Nonce     uint64         `json:"nonce"`
	Action    hexutil.Bytes  `json:"action"`
	Signature hexutil.Bytes  `json:"signature"`
}

func (j *JSONRPCServer) ExecuteNormal(req *http.Request, args *ExecuteNormalArgs, reply *wallet.Result) error {
	a, err := actions.Unmarshal(args.Action)
	if err != nil {
		return err
	}
	res, err := j.d.ExecuteNormal(req.Context(), &wallet.NormalRequest{
		Wallet:    args.Wallet,
		Nonce:     args.Nonce,
		Action:    a,
		Signature: args.Signature,
	})
	if err != nil {
		return err
	}
	*reply = *res
	return nil
}

type ExecuteWithApprovalArgs struct {
	Wallet         common.Address    `json:"wallet"`
	Action         hexutil.Bytes     `json:"action"`
	Approval       approval.Approval `json:"approval"`
	OwnerSignature hexutil.Bytes     `json:"ownerSignature"`
}

func (j *JSONRPCServer) ExecuteWithApproval(req *http.Request, args *ExecuteWithApprovalArgs, reply *wallet.Result) error {
	a, err := actions.Unmarshal(args.Action)
	if err != nil {
		return err
	}
	res, err := j.d.ExecuteWithApproval(req.Context(), &wallet.ApprovalRequest{
		Wallet:         args.Wallet,
		Action:         a,
		Approval:       args.Approval,
		OwnerSignature: args.OwnerSignature,
	})
	if err != nil {
		return err
	}
	*reply = *res
	return nil
}

type LockArgs struct {
	Wallet common.Address `json:"wallet"`
	wallet.CallerAuth
}

func (j *JSONRPCServer) Lock(req *http.Request, args *LockArgs, reply *wallet.Result) error {
	res, err := j.d.LockSigned(req.Context(), args.Wallet, &args.CallerAuth)
	if err != nil {
		return err
	}
	*reply = *res
	return nil
}

type InheritArgs struct {
	Wallet         common.Address `json:"wallet"`
	NewOwner       common.Address `json:"newOwner"`
	ClearGuardians bool           `json:"clearGuardians"`
	wallet.CallerAuth
}

func (j *JSONRPCServer) Inherit(req *http.Request, args *InheritArgs, reply *wallet.Result) error {
	res, err := j.d.InheritSigned(req.Context(), args.Wallet, args.NewOwner, args.ClearGuardians, &args.CallerAuth)
	if err != nil {
		return err
	}
	*reply = *res
	return nil
}

type DepositArgs struct {
	Wallet common.Address `json:"wallet"`
	Token  common.Address `json:"token"`
	Amount *uint256.Int   `json:"amount"`
}

func (j *JSONRPCServer) Deposit(req *http.Request, args *DepositArgs, reply *wallet.Result) error {
	if !j.allowDeposits {
		return ErrDepositsDisabled
	}
	res, err := j.d.Deposit(req.Context(), args.Wallet, args.Token, args.Amount)
	if err != nil {
		return err
	}
	*reply = *res
	return nil
}

type WalletArgs struct {
	Wallet common.Address `json:"wallet"`
}

func (j *JSONRPCServer) Status(req *http.Request, args *WalletArgs, reply *wallet.Status) error {
	s, err := j.d.Status(req.Context(), args.Wallet)
	if err != nil {
		return err
	}
	*reply = *s
	return nil
}

type BalanceArgs struct {
	Owner common.Address `json:"owner"`
	Token common.Address `json:"token"`
}

type BalanceReply struct {
	Amount *uint256.Int `json:"amount"`
}

func (j *JSONRPCServer) Balance(req *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	amount, err := j.d.Balance(req.Context(), args.Owner, args.Token)
	if err != nil {
		return err
	}
	reply.Amount = amount
	return nil
}

type IsConsumedArgs struct {
	Wallet common.Address `json:"wallet"`
	Digest common.Hash    `json:"digest"`
}

type IsConsumedReply struct {
	Consumed bool `json:"consumed"`
}

func (j *JSONRPCServer) IsConsumed(req *http.Request, args *IsConsumedArgs, reply *IsConsumedReply) error {
	consumed, err := j.d.IsConsumed(req.Context(), args.Wallet, args.Digest)
	if err != nil {
		return err
	}
	reply.Consumed = consumed
	return nil
}
