// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureLen is r || s || v.
	SignatureLen = crypto.SignatureLength
	// TypedSignatureLen carries a trailing byte selecting how the hash was
	// presented to the signer.
	TypedSignatureLen = SignatureLen + 1

	EIP712Type  byte = 0x02
	EthSignType byte = 0x03
)

// Recover returns the address that produced [sig] over [hash]. [v] may be
// 0/1 or 27/28. High-s signatures are rejected so a signature has exactly
// one valid encoding.
func Recover(hash common.Hash, sig []byte) (common.Address, error) {
	digest := hash.Bytes()
	switch len(sig) {
	case SignatureLen:
	case TypedSignatureLen:
		switch sig[SignatureLen] {
		case EIP712Type:
		case EthSignType:
			digest = accounts.TextHash(digest)
		default:
			return common.Address{}, fmt.Errorf("%w: %d", ErrUnknownSignatureType, sig[SignatureLen])
		}
		sig = sig[:SignatureLen]
	default:
		return common.Address{}, fmt.Errorf("%w: %d", ErrInvalidSignatureSize, len(sig))
	}

	rsv := make([]byte, SignatureLen)
	copy(rsv, sig)
	if rsv[crypto.RecoveryIDOffset] >= 27 {
		rsv[crypto.RecoveryIDOffset] -= 27
	}
	r := new(big.Int).SetBytes(rsv[:32])
	s := new(big.Int).SetBytes(rsv[32:64])
	if !crypto.ValidateSignatureValues(rsv[crypto.RecoveryIDOffset], r, s, true) {
		return common.Address{}, ErrInvalidSignature
	}
	pub, err := crypto.SigToPub(digest, rsv)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Sign produces a 65 byte signature with v in {27, 28}.
func Sign(hash common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignEthMessage signs the eth_sign prefixed form of [hash] and tags the
// result with [EthSignType].
func SignEthMessage(hash common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(hash.Bytes()), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return append(sig, EthSignType), nil
}
