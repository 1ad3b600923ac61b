// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package eip712 hashes wallet operations as EIP-712 typed data so that
// owners and guardians sign the exact fields an operation will apply.
package eip712

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"

	"github.com/ava-labs/guardianwallet/consts"
)

const domainType = "EIP712Domain"

var (
	ErrMissingField    = errors.New("missing field")
	ErrUnexpectedField = errors.New("unexpected field")
	ErrReservedField   = errors.New("reserved field")
)

var domainFields = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// Domain binds signatures to a chain and to the wallet's current logic
// identity. Changing the master copy invalidates every outstanding
// signature.
type Domain struct {
	ChainID           *big.Int
	VerifyingContract common.Address
}

func (d Domain) typed() apitypes.TypedDataDomain {
	chainID := d.ChainID
	if chainID == nil {
		chainID = new(big.Int)
	}
	return apitypes.TypedDataDomain{
		Name:              consts.DomainName,
		Version:           consts.DomainVersion,
		ChainId:           (*math.HexOrDecimal256)(chainID),
		VerifyingContract: d.VerifyingContract.Hex(),
	}
}

// Separator is the domain separator hash.
func (d Domain) Separator() (common.Hash, error) {
	td := apitypes.TypedData{
		Types:  apitypes.Types{domainType: domainFields},
		Domain: d.typed(),
	}
	h, err := td.HashStruct(domainType, td.Domain.Map())
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(h), nil
}

// Schema is the action-specific part of a typed message. [Name] becomes the
// primary type and must be capitalized.
type Schema struct {
	Name   string
	Fields []apitypes.Type
}

func (s Schema) String() string {
	return s.Name
}

// Hash returns the EIP-712 digest of [values] under [fields]. Every field
// must be present in [values] and nothing else may be.
func Hash(d Domain, primaryType string, fields []apitypes.Type, values map[string]interface{}) (common.Hash, error) {
	if len(values) != len(fields) {
		for name := range values {
			if !hasField(fields, name) {
				return common.Hash{}, fmt.Errorf("%w: %s.%s", ErrUnexpectedField, primaryType, name)
			}
		}
	}
	for _, f := range fields {
		if _, ok := values[f.Name]; !ok {
			return common.Hash{}, fmt.Errorf("%w: %s.%s", ErrMissingField, primaryType, f.Name)
		}
	}
	td := apitypes.TypedData{
		Types: apitypes.Types{
			domainType:  domainFields,
			primaryType: fields,
		},
		PrimaryType: primaryType,
		Domain:      d.typed(),
		Message:     values,
	}
	h, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: %w", primaryType, err)
	}
	return common.BytesToHash(h), nil
}

// ApprovalHash is the digest guardians and the owner sign on the approval
// path. The schema is wrapped as {wallet, validUntil, ...fields, salt}.
func ApprovalHash(
	d Domain,
	s Schema,
	wallet common.Address,
	validUntil int64,
	values map[string]interface{},
	salt common.Hash,
) (common.Hash, error) {
	fields := make([]apitypes.Type, 0, len(s.Fields)+3)
	fields = append(fields,
		apitypes.Type{Name: "wallet", Type: "address"},
		apitypes.Type{Name: "validUntil", Type: "uint256"},
	)
	fields = append(fields, s.Fields...)
	fields = append(fields, apitypes.Type{Name: "salt", Type: "bytes32"})

	msg, err := wrap(s, values, map[string]interface{}{
		"wallet":     Address(wallet),
		"validUntil": big.NewInt(validUntil),
		"salt":       salt.Bytes(),
	})
	if err != nil {
		return common.Hash{}, err
	}
	return Hash(d, s.Name, fields, msg)
}

// NonceHash is the digest the owner signs on the normal path. The schema is
// wrapped as {wallet, nonce, ...fields}.
func NonceHash(
	d Domain,
	s Schema,
	wallet common.Address,
	nonce uint64,
	values map[string]interface{},
) (common.Hash, error) {
	fields := make([]apitypes.Type, 0, len(s.Fields)+2)
	fields = append(fields,
		apitypes.Type{Name: "wallet", Type: "address"},
		apitypes.Type{Name: "nonce", Type: "uint256"},
	)
	fields = append(fields, s.Fields...)

	msg, err := wrap(s, values, map[string]interface{}{
		"wallet": Address(wallet),
		"nonce":  new(big.Int).SetUint64(nonce),
	})
	if err != nil {
		return common.Hash{}, err
	}
	return Hash(d, s.Name, fields, msg)
}

func wrap(s Schema, values map[string]interface{}, envelope map[string]interface{}) (map[string]interface{}, error) {
	msg := make(map[string]interface{}, len(values)+len(envelope))
	for k, v := range values {
		if _, ok := envelope[k]; ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrReservedField, s.Name, k)
		}
		msg[k] = v
	}
	for k, v := range envelope {
		msg[k] = v
	}
	return msg, nil
}

func hasField(fields []apitypes.Type, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Value encoders accepted by go-ethereum's typed data hasher.

func Address(a common.Address) interface{} {
	return a.Hex()
}

func Addresses(addrs []common.Address) interface{} {
	out := make([]interface{}, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out
}

func Uint256(v *uint256.Int) interface{} {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

func Bytes(b []byte) interface{} {
	if b == nil {
		return []byte{}
	}
	return b
}
