// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	ByteLen    = 1
	BoolLen    = 1
	Uint16Len  = 2
	IntLen     = 4
	Uint64Len  = 8
	Int64Len   = 8
	HashLen    = 32
	AddressLen = 20
	Uint256Len = 32
	MaxUint16  = ^uint16(0)
	MaxUint64  = ^uint64(0)

	// MaxValueSize bounds any single encoded state value.
	MaxValueSize = 64 * 1024
)

const (
	Minute int64 = 60
	Hour         = 60 * Minute
	Day          = 24 * Hour
)

// Policy defaults. All of them can be overridden through config.
const (
	GuardianDelay  = 3 * Day
	QuotaDelay     = Day
	WhitelistDelay = Day
	QuotaWindow    = Day

	// ImmediateGuardians is the number of guardians that become active
	// without delay when added to a wallet.
	ImmediateGuardians = 2
	MaxGuardians       = 10

	MinInheritWaiting = 30 * Day
	MaxInheritWaiting = 3650 * Day
)

// Typed-data domain.
const (
	DomainName    = "LoopringWallet"
	DomainVersion = "2.0.0"
)
