// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const PrivateKeyLen = 32

// HashSigner produces signatures over typed-data digests on behalf of
// [Address]. Implementations may be remote; [SignHash] may block.
type HashSigner interface {
	Address() common.Address
	SignHash(ctx context.Context, hash common.Hash) ([]byte, error)
}

var (
	_ HashSigner = (*PrivateKeySigner)(nil)
	_ HashSigner = (*ManagerSigner)(nil)
)

type PrivateKeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func NewPrivateKeySigner(key *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{
		key:  key,
		addr: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func GeneratePrivateKeySigner() (*PrivateKeySigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewPrivateKeySigner(key), nil
}

// LoadPrivateKeySigner parses a raw 32 byte secp256k1 key.
func LoadPrivateKeySigner(b []byte) (*PrivateKeySigner, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return NewPrivateKeySigner(key), nil
}

func (p *PrivateKeySigner) Address() common.Address {
	return p.addr
}

func (p *PrivateKeySigner) Bytes() []byte {
	return crypto.FromECDSA(p.key)
}

func (p *PrivateKeySigner) SignHash(_ context.Context, hash common.Hash) ([]byte, error) {
	return Sign(hash, p.key)
}

// ManagerSigner signs for [Account] using one of its managers' keys.
type ManagerSigner struct {
	Account common.Address
	Manager HashSigner
}

func (m *ManagerSigner) Address() common.Address {
	return m.Account
}

func (m *ManagerSigner) SignHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	return m.Manager.SignHash(ctx, hash)
}
