// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"math/big"
	"strings"

	"github.com/ava-labs/avalanchego/utils/rpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ava-labs/guardianwallet/actions"
	"github.com/ava-labs/guardianwallet/approval"
	"github.com/ava-labs/guardianwallet/wallet"
)

type JSONRPCClient struct {
	requester rpc.EndpointRequester

	chainID *big.Int
}

// NewJSONRPCClient talks to the wallet service mounted at [uri].
func NewJSONRPCClient(uri string) *JSONRPCClient {
	uri = strings.TrimSuffix(uri, "/")
	uri += JSONRPCEndpoint
	return &JSONRPCClient{requester: rpc.NewEndpointRequester(uri)}
}

func (cli *JSONRPCClient) send(ctx context.Context, method string, args interface{}, reply interface{}) error {
	if args == nil {
		args = struct{}{}
	}
	return cli.requester.SendRequest(ctx, Name+"."+method, args, reply)
}

func (cli *JSONRPCClient) Ping(ctx context.Context) (bool, error) {
	resp := new(PingReply)
	err := cli.send(ctx, "ping", nil, resp)
	return resp.Success, err
}

// ChainID is cached after the first successful call.
func (cli *JSONRPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	if cli.chainID != nil {
		return new(big.Int).Set(cli.chainID), nil
	}
	resp := new(ChainIDReply)
	if err := cli.send(ctx, "chainID", nil, resp); err != nil {
		return nil, err
	}
	cli.chainID = resp.ChainID.ToInt()
	return new(big.Int).Set(cli.chainID), nil
}

func (cli *JSONRPCClient) Create(ctx context.Context, req *wallet.CreateRequest) (*wallet.Result, error) {
	resp := new(wallet.Result)
	err := cli.send(ctx, "create", req, resp)
	return resp, err
}

func (cli *JSONRPCClient) ExecuteNormal(
	ctx context.Context,
	w common.Address,
	nonce uint64,
	a actions.Action,
	sig []byte,
) (*wallet.Result, error) {
	b, err := actions.Marshal(a)
	if err != nil {
		return nil, err
	}
	resp := new(wallet.Result)
	err = cli.send(ctx, "executeNormal", &ExecuteNormalArgs{
		Wallet:    w,
		Nonce:     nonce,
		Action:    b,
		Signature: sig,
	}, resp)
	return resp, err
}

func (cli *JSONRPCClient) ExecuteWithApproval(
	ctx context.Context,
	w common.Address,
	a actions.Action,
	bundle *approval.Approval,
	ownerSig []byte,
) (*wallet.Result, error) {
	b, err := actions.Marshal(a)
	if err != nil {
		return nil, err
	}
	resp := new(wallet.Result)
	err = cli.send(ctx, "executeWithApproval", &ExecuteWithApprovalArgs{
		Wallet:         w,
		Action:         b,
		Approval:       *bundle,
		OwnerSignature: ownerSig,
	}, resp)
	return resp, err
}

func (cli *JSONRPCClient) Lock(ctx context.Context, w common.Address, ca *wallet.CallerAuth) (*wallet.Result, error) {
	resp := new(wallet.Result)
	err := cli.send(ctx, "lock", &LockArgs{Wallet: w, CallerAuth: *ca}, resp)
	return resp, err
}

func (cli *JSONRPCClient) Inherit(
	ctx context.Context,
	w common.Address,
	newOwner common.Address,
	clearGuardians bool,
	ca *wallet.CallerAuth,
) (*wallet.Result, error) {
	resp := new(wallet.Result)
	err := cli.send(ctx, "inherit", &InheritArgs{
		Wallet:         w,
		NewOwner:       newOwner,
		ClearGuardians: clearGuardians,
		CallerAuth:     *ca,
	}, resp)
	return resp, err
}

func (cli *JSONRPCClient) Deposit(ctx context.Context, w common.Address, token common.Address, amount *uint256.Int) (*wallet.Result, error) {
	resp := new(wallet.Result)
	err := cli.send(ctx, "deposit", &DepositArgs{Wallet: w, Token: token, Amount: amount}, resp)
	return resp, err
}

func (cli *JSONRPCClient) Status(ctx context.Context, w common.Address) (*wallet.Status, error) {
	resp := new(wallet.Status)
	err := cli.send(ctx, "status", &WalletArgs{Wallet: w}, resp)
	return resp, err
}

func (cli *JSONRPCClient) Balance(ctx context.Context, owner common.Address, token common.Address) (*uint256.Int, error) {
	resp := new(BalanceReply)
	err := cli.send(ctx, "balance", &BalanceArgs{Owner: owner, Token: token}, resp)
	return resp.Amount, err
}

func (cli *JSONRPCClient) IsConsumed(ctx context.Context, w common.Address, digest common.Hash) (bool, error) {
	resp := new(IsConsumedReply)
	err := cli.send(ctx, "isConsumed", &IsConsumedArgs{Wallet: w, Digest: digest}, resp)
	return resp.Consumed, err
}
