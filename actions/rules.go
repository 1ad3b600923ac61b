// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"github.com/ava-labs/guardianwallet/guardian"
	"github.com/ava-labs/guardianwallet/quota"
	"github.com/ava-labs/guardianwallet/security"
)

var _ Rules = (*StaticRules)(nil)

type StaticRules struct {
	Guardian guardian.Policy
	Quota    quota.Policy
	Security security.Policy
	Oracle   quota.PriceOracle
}

func NewDefaultRules() *StaticRules {
	return &StaticRules{
		Guardian: guardian.DefaultPolicy(),
		Quota:    quota.DefaultPolicy(),
		Security: security.DefaultPolicy(),
	}
}

func (r *StaticRules) GuardianPolicy() guardian.Policy { return r.Guardian }

func (r *StaticRules) QuotaPolicy() quota.Policy { return r.Quota }

func (r *StaticRules) SecurityPolicy() security.Policy { return r.Security }

func (r *StaticRules) PriceOracle() quota.PriceOracle { return r.Oracle }
