// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrUnknownType = errors.New("unknown record type")

type Type uint8

const (
	WalletCreated Type = iota
	GuardianAdded
	GuardianRemoved
	Recovered
	Locked
	Unlocked
	QuotaChanged
	WhitelistAdded
	WhitelistRemoved
	MasterCopyChanged
	InheritorChanged
	Inherited
	TokenApproved
	TokenTransferred
	ContractCalled
)

var typeNames = map[Type]string{
	WalletCreated:     "WalletCreated",
	GuardianAdded:     "GuardianAdded",
	GuardianRemoved:   "GuardianRemoved",
	Recovered:         "Recovered",
	Locked:            "Locked",
	Unlocked:          "Unlocked",
	QuotaChanged:      "QuotaChanged",
	WhitelistAdded:    "WhitelistAdded",
	WhitelistRemoved:  "WhitelistRemoved",
	MasterCopyChanged: "MasterCopyChanged",
	InheritorChanged:  "InheritorChanged",
	Inherited:         "Inherited",
	TokenApproved:     "TokenApproved",
	TokenTransferred:  "TokenTransferred",
	ContractCalled:    "ContractCalled",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	for typ, name := range typeNames {
		if name == string(b) {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownType, b)
}

// Record is one externally visible effect of a committed operation.
// Fields that do not apply to a [Type] are left zero.
type Record struct {
	Type    Type           `json:"type"`
	Wallet  common.Address `json:"wallet"`
	Subject common.Address `json:"subject,omitempty"`
	Amount  *uint256.Int   `json:"amount,omitempty"`
	// EffectiveTime is when a scheduled change applies.
	EffectiveTime int64 `json:"effectiveTime,omitempty"`
}

func (r Record) String() string {
	return fmt.Sprintf("%s(wallet=%s subject=%s amount=%v effective=%d)", r.Type, r.Wallet, r.Subject, r.Amount, r.EffectiveTime)
}

// Log buffers the records of an operation in progress. It is discarded if
// the operation fails.
type Log struct {
	wallet  common.Address
	records []Record
}

func NewLog(wallet common.Address) *Log {
	return &Log{wallet: wallet}
}

func (l *Log) Emit(t Type, subject common.Address, amount *uint256.Int, effectiveTime int64) {
	var a *uint256.Int
	if amount != nil {
		a = new(uint256.Int).Set(amount)
	}
	l.records = append(l.records, Record{
		Type:          t,
		Wallet:        l.wallet,
		Subject:       subject,
		Amount:        a,
		EffectiveTime: effectiveTime,
	})
}

func (l *Log) Records() []Record {
	return l.records
}

// Batch is what subscribers receive for each committed operation.
type Batch struct {
	Wallet    common.Address `json:"wallet"`
	Operation string         `json:"operation"`
	Timestamp int64          `json:"timestamp"`
	Records   []Record       `json:"records"`
}
