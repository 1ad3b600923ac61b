// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"fmt"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
)

type unmarshalFunc func(*codec.Packer) (Action, error)

// Note: IDs are fixed in consts so a registered action never changes
// meaning.
var registry = map[uint8]unmarshalFunc{
	consts.ApproveTokenID:            UnmarshalApproveToken,
	consts.TransferTokenID:           UnmarshalTransferToken,
	consts.CallContractID:            UnmarshalCallContract,
	consts.ApproveThenCallContractID: UnmarshalApproveThenCallContract,
	consts.AddGuardianID:             UnmarshalAddGuardian,
	consts.RemoveGuardianID:          UnmarshalRemoveGuardian,
	consts.ResetGuardiansID:          UnmarshalResetGuardians,
	consts.ChangeDailyQuotaID:        UnmarshalChangeDailyQuota,
	consts.ChangeMasterCopyID:        UnmarshalChangeMasterCopy,
	consts.RecoverID:                 UnmarshalRecover,
	consts.UnlockID:                  UnmarshalUnlock,
	consts.AddToWhitelistID:          UnmarshalAddToWhitelist,
	consts.RemoveFromWhitelistID:     UnmarshalRemoveFromWhitelist,
	consts.SetInheritorID:            UnmarshalSetInheritor,
}

// Marshal encodes [a] prefixed with its type ID.
func Marshal(a Action) ([]byte, error) {
	p := codec.NewWriter(consts.ByteLen+consts.AddressLen*2+consts.Uint256Len, consts.MaxValueSize)
	p.PackByte(a.GetTypeID())
	a.Marshal(p)
	return p.Bytes(), p.Err()
}

func Unmarshal(b []byte) (Action, error) {
	p := codec.NewReader(b, consts.MaxValueSize)
	typeID := p.UnpackByte()
	if err := p.Err(); err != nil {
		return nil, err
	}
	f, ok := registry[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, typeID)
	}
	a, err := f(p)
	if err != nil {
		return nil, err
	}
	if !p.Empty() {
		return nil, codec.ErrExtraBytes
	}
	return a, nil
}

// Name is the schema name of [a], used in logs and metrics.
func Name(a Action) string {
	return a.Schema().Name
}
