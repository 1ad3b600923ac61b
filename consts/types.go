// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

// Note: IDs are assigned explicitly so that reordering this list never
// changes the meaning of a persisted or signed action.
const (
	ApproveTokenID            uint8 = 0
	TransferTokenID           uint8 = 1
	CallContractID            uint8 = 2
	ApproveThenCallContractID uint8 = 3
	AddGuardianID             uint8 = 4
	RemoveGuardianID          uint8 = 5
	ResetGuardiansID          uint8 = 6
	ChangeDailyQuotaID        uint8 = 7
	ChangeMasterCopyID        uint8 = 8
	RecoverID                 uint8 = 9
	UnlockID                  uint8 = 10
	AddToWhitelistID          uint8 = 11
	RemoveFromWhitelistID     uint8 = 12
	SetInheritorID            uint8 = 13
)
