// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"sort"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/guardianwallet/actions"
	"github.com/ava-labs/guardianwallet/approval"
	"github.com/ava-labs/guardianwallet/auth"
	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/event"
	"github.com/ava-labs/guardianwallet/pubsub"
	"github.com/ava-labs/guardianwallet/server"
	"github.com/ava-labs/guardianwallet/trace"
	"github.com/ava-labs/guardianwallet/wallet"
)

const start = int64(1_700_000_000)

var (
	chainID    = big.NewInt(43114)
	masterCopy = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	recipient  = common.HexToAddress("0x00000000000000000000000000000000000000dd")
)

type testEnv struct {
	d   *wallet.Dispatcher
	uri string
	cli *JSONRPCClient
}

func newTestEnv(t *testing.T, allowDeposits bool) *testEnv {
	require := require.New(t)

	ws, wsHandler := NewWebSocketServer(logging.NoLog{}, pubsub.NewDefaultServerConfig())
	d, _, err := wallet.New(logging.NoLog{}, trace.Noop(), memdb.New(), actions.NewDefaultRules(), chainID, ws)
	require.NoError(err)
	d.Clock().Set(time.Unix(start, 0))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	config := server.NewDefaultConfig()
	srv := server.New(logging.NoLog{}, listener, config)
	handler, err := server.NewHandler(NewJSONRPCServer(d, allowDeposits), Name)
	require.NoError(err)
	require.NoError(srv.AddRoute(handler, Name, JSONRPCEndpoint))
	require.NoError(srv.AddRoute(wsHandler, Name, WebSocketEndpoint))
	go func() {
		_ = srv.Dispatch()
	}()
	t.Cleanup(func() {
		require.NoError(d.Close())
		require.NoError(srv.Shutdown())
	})

	uri := fmt.Sprintf("http://%s%s/%s", listener.Addr(), config.BaseURL, Name)
	return &testEnv{d: d, uri: uri, cli: NewJSONRPCClient(uri)}
}

func newSigners(t *testing.T, n int) []*auth.PrivateKeySigner {
	signers := make([]*auth.PrivateKeySigner, n)
	for i := range signers {
		s, err := auth.GeneratePrivateKeySigner()
		require.NoError(t, err)
		signers[i] = s
	}
	sort.Slice(signers, func(i, j int) bool {
		return codec.CompareAddress(signers[i].Address(), signers[j].Address()) < 0
	})
	return signers
}

func TestJSONRPC(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t, true)
	cli := env.cli

	ok, err := cli.Ping(ctx)
	require.NoError(err)
	require.True(ok)
	id, err := cli.ChainID(ctx)
	require.NoError(err)
	require.Zero(chainID.Cmp(id))

	keys := newSigners(t, 2)
	w, owner := keys[0].Address(), keys[1]
	guardians := newSigners(t, 2)
	res, err := cli.Create(ctx, &wallet.CreateRequest{
		Wallet:     w,
		Owner:      owner.Address(),
		MasterCopy: masterCopy,
		Guardians:  []common.Address{guardians[0].Address(), guardians[1].Address()},
		Quota:      uint256.NewInt(100),
	})
	require.NoError(err)
	require.Equal(event.WalletCreated, res.Records[0].Type)

	_, err = cli.Create(ctx, &wallet.CreateRequest{Wallet: w, Owner: owner.Address(), MasterCopy: masterCopy})
	require.ErrorContains(err, wallet.ErrWalletExists.Error())

	_, err = cli.Deposit(ctx, w, common.Address{}, uint256.NewInt(1_000))
	require.NoError(err)
	bal, err := cli.Balance(ctx, w, common.Address{})
	require.NoError(err)
	require.Equal(uint64(1_000), bal.Uint64())

	// Normal path
	transfer := &actions.TransferToken{To: recipient, Amount: uint256.NewInt(50)}
	hash, err := wallet.NormalHash(chainID, masterCopy, w, 1, transfer)
	require.NoError(err)
	sig, err := owner.SignHash(ctx, hash)
	require.NoError(err)
	res, err = cli.ExecuteNormal(ctx, w, 1, transfer, sig)
	require.NoError(err)
	require.Equal([]event.Type{event.TokenTransferred}, []event.Type{res.Records[0].Type})
	_, err = cli.ExecuteNormal(ctx, w, 1, transfer, sig)
	require.ErrorContains(err, wallet.ErrInvalidNonce.Error())
	bal, err = cli.Balance(ctx, recipient, common.Address{})
	require.NoError(err)
	require.Equal(uint64(50), bal.Uint64())

	// Approval path
	change := &actions.ChangeDailyQuota{NewQuota: uint256.NewInt(500)}
	salt, err := approval.NewSalt()
	require.NoError(err)
	hash, err = wallet.ApprovalHash(chainID, masterCopy, w, change, 0, salt)
	require.NoError(err)
	bundle, err := approval.NewCollector(2, guardians[0], guardians[1]).Collect(ctx, hash, 0, salt)
	require.NoError(err)
	ownerSig, err := owner.SignHash(ctx, hash)
	require.NoError(err)
	res, err = cli.ExecuteWithApproval(ctx, w, change, bundle, ownerSig)
	require.NoError(err)
	require.Equal(hash, res.Digest)
	consumed, err := cli.IsConsumed(ctx, w, hash)
	require.NoError(err)
	require.True(consumed)
	_, err = cli.ExecuteWithApproval(ctx, w, change, bundle, ownerSig)
	require.ErrorContains(err, approval.ErrHashExists.Error())

	status, err := cli.Status(ctx, w)
	require.NoError(err)
	require.Equal(owner.Address(), status.Owner)
	require.Equal(uint64(1), status.Nonce)
	require.Equal(2, status.Quorum)
	require.Len(status.Guardians, 2)
	require.Equal(uint64(500), status.Quota.Effective.Uint64())

	// Signed lock
	validUntil := start + 60
	hash, err = wallet.LockHash(chainID, masterCopy, w, validUntil)
	require.NoError(err)
	sig, err = guardians[1].SignHash(ctx, hash)
	require.NoError(err)
	_, err = cli.Lock(ctx, w, &wallet.CallerAuth{Caller: owner.Address(), ValidUntil: validUntil, Signature: sig})
	require.ErrorContains(err, wallet.ErrUnauthorized.Error())
	res, err = cli.Lock(ctx, w, &wallet.CallerAuth{Caller: guardians[1].Address(), ValidUntil: validUntil, Signature: sig})
	require.NoError(err)
	require.Equal(event.Locked, res.Records[0].Type)
	status, err = cli.Status(ctx, w)
	require.NoError(err)
	require.True(status.Locked)
}

func TestDepositsDisabled(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.cli.Deposit(context.Background(), recipient, common.Address{}, uint256.NewInt(1))
	require.ErrorContains(t, err, ErrDepositsDisabled.Error())
}

func TestWebSocketBatches(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	env := newTestEnv(t, true)

	keys := newSigners(t, 4)
	first, second, owner := keys[0].Address(), keys[1].Address(), keys[2].Address()

	walletClient, err := NewWebSocketClient(env.uri)
	require.NoError(err)
	defer walletClient.Close()
	require.NoError(walletClient.SubscribeWallet(ctx, second))

	allClient, err := NewWebSocketClient(env.uri)
	require.NoError(err)
	defer allClient.Close()
	require.NoError(allClient.SubscribeAll(ctx))

	for _, w := range []common.Address{first, second} {
		_, err := env.d.Create(ctx, &wallet.CreateRequest{Wallet: w, Owner: owner, MasterCopy: masterCopy})
		require.NoError(err)
	}

	b, err := walletClient.ListenBatch(ctx)
	require.NoError(err)
	require.Equal(second, b.Wallet)
	require.Equal("Create", b.Operation)
	require.Equal(start, b.Timestamp)
	require.Equal(event.WalletCreated, b.Records[0].Type)

	for _, w := range []common.Address{first, second} {
		b, err := allClient.ListenBatch(ctx)
		require.NoError(err)
		require.Equal(w, b.Wallet)
	}
}
