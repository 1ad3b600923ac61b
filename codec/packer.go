// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ava-labs/guardianwallet/consts"
)

// Packer is a wrapper struct for the Packer struct
// from avalanchego/utils/wrappers/packing.go. A bool [required] parameter is
// added to many unpacking methods, which signals the packer to add an error
// if the expected type is empty.
type Packer struct {
	p *wrappers.Packer
}

// NewReader returns a Packer instance with the initial size of [src] and a
// MaxSize of [limit].
func NewReader(src []byte, limit int) *Packer {
	return &Packer{
		p: &wrappers.Packer{Bytes: src, MaxSize: limit},
	}
}

// NewWriter returns a Packer instance with an initial size of [initial] and a
// MaxSize set to [limit].
func NewWriter(initial, limit int) *Packer {
	return &Packer{
		p: &wrappers.Packer{Bytes: make([]byte, 0, initial), MaxSize: limit},
	}
}

func (p *Packer) PackByte(b byte) {
	p.p.PackByte(b)
}

func (p *Packer) UnpackByte() byte {
	return p.p.UnpackByte()
}

func (p *Packer) PackBool(b bool) {
	p.p.PackBool(b)
}

func (p *Packer) UnpackBool() bool {
	return p.p.UnpackBool()
}

func (p *Packer) PackUint64(v uint64) {
	p.p.PackLong(v)
}

func (p *Packer) UnpackUint64(required bool) uint64 {
	v := p.p.UnpackLong()
	if required && v == 0 {
		p.addErr(ErrFieldNotPopulated)
	}
	return v
}

func (p *Packer) PackInt64(v int64) {
	p.p.PackLong(uint64(v))
}

func (p *Packer) UnpackInt64(required bool) int64 {
	v := p.p.UnpackLong()
	if required && v == 0 {
		p.addErr(ErrFieldNotPopulated)
	}
	return int64(v)
}

func (p *Packer) PackAddress(a common.Address) {
	p.p.PackFixedBytes(a[:])
}

func (p *Packer) UnpackAddress(required bool, dest *common.Address) {
	copy((*dest)[:], p.p.UnpackFixedBytes(consts.AddressLen))
	if required && *dest == EmptyAddress {
		p.addErr(ErrFieldNotPopulated)
	}
}

func (p *Packer) PackHash(h common.Hash) {
	p.p.PackFixedBytes(h[:])
}

func (p *Packer) UnpackHash(required bool, dest *common.Hash) {
	copy((*dest)[:], p.p.UnpackFixedBytes(consts.HashLen))
	if required && *dest == (common.Hash{}) {
		p.addErr(ErrFieldNotPopulated)
	}
}

// PackUint256 writes [v] as a 32 byte big-endian word. A nil [v] is packed
// as zero.
func (p *Packer) PackUint256(v *uint256.Int) {
	if v == nil {
		v = new(uint256.Int)
	}
	b := v.Bytes32()
	p.p.PackFixedBytes(b[:])
}

func (p *Packer) UnpackUint256(required bool) *uint256.Int {
	v := new(uint256.Int).SetBytes(p.p.UnpackFixedBytes(consts.Uint256Len))
	if required && v.IsZero() {
		p.addErr(ErrFieldNotPopulated)
	}
	return v
}

// PackBytes packs [b] with a length prefix.
func (p *Packer) PackBytes(b []byte) {
	p.p.PackBytes(b)
}

// UnpackBytes unpacks [limit] bytes into [dest]. Otherwise
// if [limit] >= 0, UnpackBytes unpacks a byte slice array into [dest]. If
// [required] is set to true and the amount of bytes written to [dest] is 0,
// UnpackBytes adds an err ErrFieldNotPopulated to the Packer.
func (p *Packer) UnpackBytes(limit int, required bool, dest *[]byte) {
	if limit >= 0 {
		*dest = p.p.UnpackLimitedBytes(uint32(limit))
	} else {
		*dest = p.p.UnpackBytes()
	}
	if required && len(*dest) == 0 {
		p.addErr(ErrFieldNotPopulated)
	}
}

// PackAddresses packs a count-prefixed address list.
func (p *Packer) PackAddresses(addrs []common.Address) {
	p.p.PackShort(uint16(len(addrs)))
	for _, a := range addrs {
		p.PackAddress(a)
	}
}

func (p *Packer) UnpackAddresses(limit int, required bool, dest *[]common.Address) {
	l := int(p.p.UnpackShort())
	if l > limit {
		p.addErr(ErrTooManyItems)
		return
	}
	if required && l == 0 {
		p.addErr(ErrFieldNotPopulated)
		return
	}
	addrs := make([]common.Address, l)
	for i := range addrs {
		p.UnpackAddress(false, &addrs[i])
	}
	*dest = addrs
}

// PackShort packs a uint16 (used as a count prefix by callers).
func (p *Packer) PackShort(v uint16) {
	p.p.PackShort(v)
}

func (p *Packer) UnpackShort() uint16 {
	return p.p.UnpackShort()
}

func (p *Packer) Bytes() []byte {
	return p.p.Bytes
}

func (p *Packer) Offset() int {
	return p.p.Offset
}

func (p *Packer) Err() error {
	return p.p.Err
}

// Empty returns true if the reader has consumed all of its input.
func (p *Packer) Empty() bool {
	return p.p.Offset == len(p.p.Bytes)
}

func (p *Packer) addErr(err error) {
	if p.p.Err == nil {
		p.p.Err = err
	}
}
