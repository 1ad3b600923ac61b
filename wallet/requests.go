// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"

	"github.com/ava-labs/guardianwallet/actions"
	"github.com/ava-labs/guardianwallet/approval"
	"github.com/ava-labs/guardianwallet/eip712"
	"github.com/ava-labs/guardianwallet/event"
	"github.com/ava-labs/guardianwallet/quota"
	"github.com/ava-labs/guardianwallet/storage"
)

// CreateRequest instantiates a wallet. [Guardians] must be strictly
// ascending; the first ones are active at once and the rest follow the
// guardian delay.
type CreateRequest struct {
	Wallet     common.Address   `json:"wallet"`
	Owner      common.Address   `json:"owner"`
	MasterCopy common.Address   `json:"masterCopy"`
	Guardians  []common.Address `json:"guardians"`
	Quota      *uint256.Int     `json:"quota"`
}

// NormalRequest is an owner-signed operation. [Nonce] must be one more
// than the wallet's stored nonce.
type NormalRequest struct {
	Wallet    common.Address `json:"wallet"`
	Nonce     uint64         `json:"nonce"`
	Action    actions.Action `json:"-"`
	Signature hexutil.Bytes  `json:"signature"`
}

// ApprovalRequest is an operation authorized by a guardian quorum and,
// unless the action says otherwise, the owner.
type ApprovalRequest struct {
	Wallet         common.Address    `json:"wallet"`
	Action         actions.Action    `json:"-"`
	Approval       approval.Approval `json:"approval"`
	OwnerSignature hexutil.Bytes     `json:"ownerSignature"`
}

// CallerAuth authenticates the caller of a lock or inheritance through a
// signature over [LockHash] or [InheritHash]. [ValidUntil] is required.
type CallerAuth struct {
	Caller     common.Address `json:"caller"`
	ValidUntil int64          `json:"validUntil"`
	Signature  hexutil.Bytes  `json:"signature"`
}

// Result is returned for every committed operation.
type Result struct {
	Records []event.Record `json:"records"`
	// Digest is the consumed approval hash on the approval path.
	Digest common.Hash `json:"digest,omitempty"`
}

// Status is a read-only view of a wallet at the dispatcher's clock.
type Status struct {
	Wallet        common.Address     `json:"wallet"`
	Owner         common.Address     `json:"owner"`
	MasterCopy    common.Address     `json:"masterCopy"`
	Locked        bool               `json:"locked"`
	Nonce         uint64             `json:"nonce"`
	LastActive    int64              `json:"lastActive"`
	Inheritor     common.Address     `json:"inheritor"`
	InheritableAt int64              `json:"inheritableAt"`
	Guardians     []storage.Guardian `json:"guardians"`
	Quorum        int                `json:"quorum"`
	Quota         *quota.Snapshot    `json:"quota"`
	Timestamp     int64              `json:"timestamp"`
}

// Domain is the typed-data domain of a wallet running [masterCopy].
func Domain(chainID *big.Int, masterCopy common.Address) eip712.Domain {
	return eip712.Domain{ChainID: chainID, VerifyingContract: masterCopy}
}

// NormalHash is what the owner signs to submit [a] with [nonce].
func NormalHash(
	chainID *big.Int,
	masterCopy common.Address,
	wallet common.Address,
	nonce uint64,
	a actions.Action,
) (common.Hash, error) {
	return eip712.NonceHash(Domain(chainID, masterCopy), a.Schema(), wallet, nonce, a.Values())
}

// ApprovalHash is what guardians and the owner sign to approve [a]. It is
// also the replay digest.
func ApprovalHash(
	chainID *big.Int,
	masterCopy common.Address,
	wallet common.Address,
	a actions.Action,
	validUntil int64,
	salt common.Hash,
) (common.Hash, error) {
	return eip712.ApprovalHash(Domain(chainID, masterCopy), a.Schema(), wallet, validUntil, a.Values(), salt)
}

var (
	lockSchema    = eip712.Schema{Name: "Lock"}
	inheritSchema = eip712.Schema{
		Name: "Inherit",
		Fields: []apitypes.Type{
			{Name: "newOwner", Type: "address"},
			{Name: "clearGuardians", Type: "bool"},
		},
	}
)

// LockHash is what a caller signs to lock [wallet] through a transport
// that can not authenticate the caller itself.
func LockHash(chainID *big.Int, masterCopy common.Address, wallet common.Address, validUntil int64) (common.Hash, error) {
	return eip712.ApprovalHash(Domain(chainID, masterCopy), lockSchema, wallet, validUntil, map[string]interface{}{}, common.Hash{})
}

// InheritHash is the [LockHash] counterpart for inheritance.
func InheritHash(
	chainID *big.Int,
	masterCopy common.Address,
	wallet common.Address,
	validUntil int64,
	newOwner common.Address,
	clearGuardians bool,
) (common.Hash, error) {
	return eip712.ApprovalHash(
		Domain(chainID, masterCopy),
		inheritSchema,
		wallet,
		validUntil,
		map[string]interface{}{
			"newOwner":       eip712.Address(newOwner),
			"clearGuardians": clearGuardians,
		},
		common.Hash{},
	)
}
