// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/state"
)

type GuardianStatus uint8

const (
	PendingAdd GuardianStatus = iota
	Active
	PendingRemove
)

func (s GuardianStatus) String() string {
	switch s {
	case PendingAdd:
		return "pendingAdd"
	case Active:
		return "active"
	case PendingRemove:
		return "pendingRemove"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

const guardianSize = consts.AddressLen + consts.ByteLen + 2*consts.Int64Len

// Guardian is a single guardian entry. The meaning of [EffectiveTime]
// depends on [Status]: it is when a pending addition activates, or when a
// pending removal takes effect. [ActiveSince] is when the guardian starts
// counting toward the quorum; an addition cancelled before it matured
// keeps it at or past its removal time, so it never counts.
type Guardian struct {
	Addr          common.Address `json:"addr"`
	Status        GuardianStatus `json:"status"`
	EffectiveTime int64          `json:"effectiveTime"`
	ActiveSince   int64          `json:"activeSince"`
}

func marshalGuardians(gs []Guardian) []byte {
	size := consts.Uint16Len + len(gs)*guardianSize
	p := codec.NewWriter(size, size)
	p.PackShort(uint16(len(gs)))
	for _, g := range gs {
		p.PackAddress(g.Addr)
		p.PackByte(byte(g.Status))
		p.PackInt64(g.EffectiveTime)
		p.PackInt64(g.ActiveSince)
	}
	return p.Bytes()
}

func unmarshalGuardians(b []byte) ([]Guardian, error) {
	p := codec.NewReader(b, consts.MaxValueSize)
	gs := make([]Guardian, p.UnpackShort())
	for i := range gs {
		p.UnpackAddress(true, &gs[i].Addr)
		gs[i].Status = GuardianStatus(p.UnpackByte())
		gs[i].EffectiveTime = p.UnpackInt64(false)
		gs[i].ActiveSince = p.UnpackInt64(false)
		if gs[i].Status > PendingRemove {
			return nil, fmt.Errorf("%w: guardian status %d", ErrInvalidRecord, gs[i].Status)
		}
	}
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("%w: guardians: %w", ErrInvalidRecord, err)
	}
	if !p.Empty() {
		return nil, fmt.Errorf("%w: guardians: %w", ErrInvalidRecord, codec.ErrExtraBytes)
	}
	return gs, nil
}

// GetGuardians returns the raw, ascending-by-address guardian entries of
// [wallet]. Entries are returned as stored: resolving them against the
// current time is the registry's job.
func GetGuardians(
	ctx context.Context,
	im state.Immutable,
	wallet common.Address,
) ([]Guardian, error) {
	v, err := im.GetValue(ctx, GuardiansKey(wallet))
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unmarshalGuardians(v)
}

// SetGuardians stores [gs], which must already be sorted. An empty list
// deletes the record.
func SetGuardians(
	ctx context.Context,
	mu state.Mutable,
	wallet common.Address,
	gs []Guardian,
) error {
	if len(gs) == 0 {
		return mu.Remove(ctx, GuardiansKey(wallet))
	}
	return mu.Insert(ctx, GuardiansKey(wallet), marshalGuardians(gs))
}
