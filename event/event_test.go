// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type closer struct {
	SubscriberFunc
	err error
}

func (c closer) Close() error {
	return c.err
}

func TestSubscribers(t *testing.T) {
	require := require.New(t)

	errSub := errors.New("subscriber failed")
	errClose := errors.New("close failed")
	var got []Batch
	subs := Subscribers{
		SubscriberFunc(func(context.Context, Batch) error {
			return errSub
		}),
		closer{
			SubscriberFunc: func(_ context.Context, b Batch) error {
				got = append(got, b)
				return nil
			},
			err: errClose,
		},
	}
	b := Batch{Operation: "Lock", Timestamp: 1}
	err := subs.Accept(context.Background(), b)
	require.ErrorIs(err, errSub)
	require.ErrorContains(err, "subscriber 0 rejected Lock batch")
	require.Equal([]Batch{b}, got)

	err = subs.Close()
	require.ErrorIs(err, errClose)
	require.ErrorContains(err, "subscriber 1")
	require.NoError(Subscribers(nil).Close())
}

func TestLog(t *testing.T) {
	require := require.New(t)

	wallet := common.HexToAddress("0xaa")
	l := NewLog(wallet)
	amt := uint256.NewInt(5)
	l.Emit(QuotaChanged, common.Address{}, amt, 10)
	amt.SetUint64(6)
	l.Emit(GuardianAdded, common.HexToAddress("0x01"), nil, 20)

	records := l.Records()
	require.Len(records, 2)
	require.Equal(wallet, records[0].Wallet)
	require.Equal(uint64(5), records[0].Amount.Uint64())
	require.Nil(records[1].Amount)
	require.Equal("GuardianAdded", records[1].Type.String())
	require.Equal("Type(200)", Type(200).String())
}

func TestTypeText(t *testing.T) {
	require := require.New(t)

	for typ := range typeNames {
		b, err := typ.MarshalText()
		require.NoError(err)
		var parsed Type
		require.NoError(parsed.UnmarshalText(b))
		require.Equal(typ, parsed)
	}

	var parsed Type
	require.ErrorIs(parsed.UnmarshalText([]byte("Exploded")), ErrUnknownType)
}
