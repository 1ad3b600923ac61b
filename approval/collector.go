// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package approval

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/guardianwallet/auth"
	"github.com/ava-labs/guardianwallet/codec"
)

// Collector gathers guardian signatures for one digest. Signers run
// concurrently and share nothing but [ctx]; the first failure cancels the
// rest.
type Collector struct {
	signers []auth.HashSigner
	limit   int
}

// NewCollector returns a collector that runs at most [limit] signers at a
// time. A non-positive [limit] runs all of them at once.
func NewCollector(limit int, signers ...auth.HashSigner) *Collector {
	return &Collector{signers: signers, limit: limit}
}

// Collect signs [hash] with every signer and returns the bundle sorted by
// signer address.
func (c *Collector) Collect(
	ctx context.Context,
	hash common.Hash,
	validUntil int64,
	salt common.Hash,
) (*Approval, error) {
	type signed struct {
		addr common.Address
		sig  []byte
	}
	results := make([]signed, len(c.signers))

	g, gctx := errgroup.WithContext(ctx)
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}
	for i, s := range c.signers {
		i, s := i, s
		g.Go(func() error {
			sig, err := s.SignHash(gctx, hash)
			if err != nil {
				return fmt.Errorf("%s: %w", s.Address(), err)
			}
			results[i] = signed{addr: s.Address(), sig: sig}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return codec.CompareAddress(results[i].addr, results[j].addr) < 0
	})
	a := &Approval{
		Signers:    make([]common.Address, len(results)),
		Signatures: make([]hexutil.Bytes, len(results)),
		ValidUntil: validUntil,
		Salt:       salt,
	}
	for i, r := range results {
		if i > 0 && r.addr == results[i-1].addr {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSigner, r.addr)
		}
		a.Signers[i] = r.addr
		a.Signatures[i] = r.sig
	}
	return a, nil
}
