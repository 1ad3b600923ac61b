// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/ava-labs/guardianwallet/actions"
	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/utils"
)

var (
	errUnknownAction = errors.New("unknown action")
	errMissingFlag   = errors.New("missing flag")
)

// actionArgs are the raw flag values an action is built from.
type actionArgs struct {
	to         string
	token      string
	amount     string
	value      string
	data       string
	guardians  []string
	masterCopy string
	waiting    int64
}

type actionBuilder func(*actionArgs) (actions.Action, error)

var actionBuilders = map[string]actionBuilder{
	"transfer": func(a *actionArgs) (actions.Action, error) {
		to, token, amount, err := a.transfer()
		if err != nil {
			return nil, err
		}
		data, err := a.bytes()
		if err != nil {
			return nil, err
		}
		return &actions.TransferToken{Token: token, To: to, Amount: amount, Logdata: data}, nil
	},
	"approve-token": func(a *actionArgs) (actions.Action, error) {
		to, token, amount, err := a.transfer()
		if err != nil {
			return nil, err
		}
		return &actions.ApproveToken{Token: token, To: to, Amount: amount}, nil
	},
	"call": func(a *actionArgs) (actions.Action, error) {
		to, err := parseAddress("to", a.to)
		if err != nil {
			return nil, err
		}
		value, err := a.optionalAmount(a.value)
		if err != nil {
			return nil, err
		}
		data, err := a.bytes()
		if err != nil {
			return nil, err
		}
		return &actions.CallContract{To: to, Value: value, Data: data}, nil
	},
	"approve-call": func(a *actionArgs) (actions.Action, error) {
		to, token, amount, err := a.transfer()
		if err != nil {
			return nil, err
		}
		value, err := a.optionalAmount(a.value)
		if err != nil {
			return nil, err
		}
		data, err := a.bytes()
		if err != nil {
			return nil, err
		}
		return &actions.ApproveThenCallContract{Token: token, To: to, Amount: amount, Value: value, Data: data}, nil
	},
	"add-guardian": func(a *actionArgs) (actions.Action, error) {
		g, err := a.guardian()
		if err != nil {
			return nil, err
		}
		return &actions.AddGuardian{Guardian: g}, nil
	},
	"remove-guardian": func(a *actionArgs) (actions.Action, error) {
		g, err := a.guardian()
		if err != nil {
			return nil, err
		}
		return &actions.RemoveGuardian{Guardian: g}, nil
	},
	"reset-guardians": func(a *actionArgs) (actions.Action, error) {
		gs, err := a.guardianList()
		if err != nil {
			return nil, err
		}
		return &actions.ResetGuardians{Guardians: gs}, nil
	},
	"change-quota": func(a *actionArgs) (actions.Action, error) {
		amount, err := a.requiredAmount()
		if err != nil {
			return nil, err
		}
		return &actions.ChangeDailyQuota{NewQuota: amount}, nil
	},
	"whitelist": func(a *actionArgs) (actions.Action, error) {
		addr, err := parseAddress("to", a.to)
		if err != nil {
			return nil, err
		}
		return &actions.AddToWhitelist{Addr: addr}, nil
	},
	"unwhitelist": func(a *actionArgs) (actions.Action, error) {
		addr, err := parseAddress("to", a.to)
		if err != nil {
			return nil, err
		}
		return &actions.RemoveFromWhitelist{Addr: addr}, nil
	},
	"change-master-copy": func(a *actionArgs) (actions.Action, error) {
		mc, err := parseAddress("master-copy", a.masterCopy)
		if err != nil {
			return nil, err
		}
		return &actions.ChangeMasterCopy{MasterCopy: mc}, nil
	},
	"recover": func(a *actionArgs) (actions.Action, error) {
		owner, err := parseAddress("to", a.to)
		if err != nil {
			return nil, err
		}
		gs, err := a.guardianList()
		if err != nil {
			return nil, err
		}
		return &actions.Recover{NewOwner: owner, NewGuardians: gs}, nil
	},
	"unlock": func(*actionArgs) (actions.Action, error) {
		return &actions.Unlock{}, nil
	},
	"set-inheritor": func(a *actionArgs) (actions.Action, error) {
		heir, err := parseAddress("to", a.to)
		if err != nil {
			return nil, err
		}
		return &actions.SetInheritor{Inheritor: heir, WaitingPeriod: a.waiting}, nil
	},
}

func actionNames() []string {
	names := make([]string, 0, len(actionBuilders))
	for name := range actionBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildAction(name string, a *actionArgs) (actions.Action, error) {
	builder, ok := actionBuilders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (one of %s)", errUnknownAction, name, strings.Join(actionNames(), ", "))
	}
	return builder(a)
}

func parseAddress(flag string, s string) (common.Address, error) {
	if s == "" {
		return codec.EmptyAddress, fmt.Errorf("%w: --%s", errMissingFlag, flag)
	}
	if !common.IsHexAddress(s) {
		return codec.EmptyAddress, fmt.Errorf("invalid --%s: %q", flag, s)
	}
	return common.HexToAddress(s), nil
}

// parseOptionalAddress maps an empty flag to the native asset.
func parseOptionalAddress(flag string, s string) (common.Address, error) {
	if s == "" {
		return codec.EmptyAddress, nil
	}
	return parseAddress(flag, s)
}

func (a *actionArgs) requiredAmount() (*uint256.Int, error) {
	if a.amount == "" {
		return nil, fmt.Errorf("%w: --amount", errMissingFlag)
	}
	return utils.ParseAmount(a.amount)
}

func (*actionArgs) optionalAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil
	}
	return utils.ParseAmount(s)
}

func (a *actionArgs) bytes() (hexutil.Bytes, error) {
	if a.data == "" {
		return nil, nil
	}
	return hexutil.Decode(a.data)
}

func (a *actionArgs) transfer() (common.Address, common.Address, *uint256.Int, error) {
	to, err := parseAddress("to", a.to)
	if err != nil {
		return codec.EmptyAddress, codec.EmptyAddress, nil, err
	}
	token, err := parseOptionalAddress("token", a.token)
	if err != nil {
		return codec.EmptyAddress, codec.EmptyAddress, nil, err
	}
	amount, err := a.requiredAmount()
	if err != nil {
		return codec.EmptyAddress, codec.EmptyAddress, nil, err
	}
	return to, token, amount, nil
}

func (a *actionArgs) guardian() (common.Address, error) {
	if len(a.guardians) != 1 {
		return codec.EmptyAddress, fmt.Errorf("%w: exactly one --guardian", errMissingFlag)
	}
	return parseAddress("guardian", a.guardians[0])
}

// guardianList returns the --guardian values sorted as the wallet expects.
func (a *actionArgs) guardianList() ([]common.Address, error) {
	gs := make([]common.Address, 0, len(a.guardians))
	for _, s := range a.guardians {
		g, err := parseAddress("guardian", s)
		if err != nil {
			return nil, err
		}
		gs = append(gs, g)
	}
	sort.Slice(gs, func(i, j int) bool {
		return codec.CompareAddress(gs[i], gs[j]) < 0
	})
	return gs, nil
}

// addActionFlags binds the flags every action builder reads to [a].
func addActionFlags(cmd *cobra.Command, a *actionArgs) {
	cmd.Flags().StringVar(&a.to, "to", "", "Recipient, spender, contract, whitelisted address, new owner or inheritor")
	cmd.Flags().StringVar(&a.token, "token", "", "Token address (native asset if empty)")
	cmd.Flags().StringVar(&a.amount, "amount", "", "Token amount or new daily quota")
	cmd.Flags().StringVar(&a.value, "value", "", "Native value sent with a contract call")
	cmd.Flags().StringVar(&a.data, "data", "", "Hex call data or log data")
	cmd.Flags().StringSliceVar(&a.guardians, "guardian", nil, "Guardian address (repeatable)")
	cmd.Flags().StringVar(&a.masterCopy, "master-copy", "", "New master copy")
	cmd.Flags().Int64Var(&a.waiting, "waiting", 0, "Inheritance waiting period in seconds")
}
