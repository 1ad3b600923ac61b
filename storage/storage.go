// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/guardianwallet/consts"
)

// State
// 0x0/ (account)
//   -> [wallet] => owner|masterCopy|locked|nonce|lastActive|inheritor|waiting
// 0x1/ (guardians)
//   -> [wallet] => sorted guardian entries
// 0x2/ (quota)
//   -> [wallet] => current|pending|pendingUntil|spent|spentResetTime
// 0x3/ (whitelist)
//   -> [wallet|addr] => effectiveTime
// 0x4/ (approval hashes)
//   -> [wallet|digest] => consumed at
// 0x5/ (balance)
//   -> [owner|token] => amount
// 0x6/ (allowance)
//   -> [owner|token|spender] => amount

const (
	accountPrefix byte = iota
	guardiansPrefix
	quotaPrefix
	whitelistPrefix
	approvalPrefix
	balancePrefix
	allowancePrefix
)

func walletKey(prefix byte, wallet common.Address, extra ...[]byte) []byte {
	l := consts.ByteLen + consts.AddressLen
	for _, e := range extra {
		l += len(e)
	}
	k := make([]byte, 0, l)
	k = append(k, prefix)
	k = append(k, wallet[:]...)
	for _, e := range extra {
		k = append(k, e...)
	}
	return k
}

// [accountPrefix] + [wallet]
func AccountKey(wallet common.Address) []byte {
	return walletKey(accountPrefix, wallet)
}

// [guardiansPrefix] + [wallet]
func GuardiansKey(wallet common.Address) []byte {
	return walletKey(guardiansPrefix, wallet)
}

// [quotaPrefix] + [wallet]
func QuotaKey(wallet common.Address) []byte {
	return walletKey(quotaPrefix, wallet)
}

// [whitelistPrefix] + [wallet] + [addr]
func WhitelistKey(wallet common.Address, addr common.Address) []byte {
	return walletKey(whitelistPrefix, wallet, addr[:])
}

// [approvalPrefix] + [wallet] + [digest]
func ApprovalKey(wallet common.Address, digest common.Hash) []byte {
	return walletKey(approvalPrefix, wallet, digest[:])
}

// [balancePrefix] + [owner] + [token]
func BalanceKey(owner common.Address, token common.Address) []byte {
	return walletKey(balancePrefix, owner, token[:])
}

// [allowancePrefix] + [owner] + [token] + [spender]
func AllowanceKey(owner common.Address, token common.Address, spender common.Address) []byte {
	return walletKey(allowancePrefix, owner, token[:], spender[:])
}
