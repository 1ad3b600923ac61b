// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/ava-labs/guardianwallet/cli/prompt"
	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/utils"
	"github.com/ava-labs/guardianwallet/wallet"
)

var (
	createArgs       actionArgs
	createWallet     string
	createOwner      string
	createMasterCopy string

	callerWallet   string
	callerValidFor time.Duration

	inheritNewOwner       string
	inheritClearGuardians bool

	tokenFlag string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a wallet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		w, err := parseAddress("wallet", createWallet)
		if err != nil {
			return err
		}
		mc, err := parseAddress("master-copy", createMasterCopy)
		if err != nil {
			return err
		}
		var owner common.Address
		if createOwner != "" {
			owner, err = parseAddress("owner", createOwner)
			if err != nil {
				return err
			}
		} else {
			signer, err := loadSigner(cmd)
			if err != nil {
				return err
			}
			owner = signer.Address()
		}
		guardians, err := createArgs.guardianList()
		if err != nil {
			return err
		}
		var quota *uint256.Int
		if createArgs.amount != "" {
			quota, err = createArgs.requiredAmount()
			if err != nil {
				return err
			}
		}
		cli, err := newClient(cmd)
		if err != nil {
			return err
		}
		res, err := cli.Create(ctx, &wallet.CreateRequest{
			Wallet:     w,
			Owner:      owner,
			MasterCopy: mc,
			Guardians:  guardians,
			Quota:      quota,
		})
		if err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		return printValue(cmd, resultCmdResponse{res})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status WALLET",
	Short: "Print the state of a wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		w, err := parseAddress("wallet", args[0])
		if err != nil {
			return err
		}
		cli, err := newClient(cmd)
		if err != nil {
			return err
		}
		s, err := cli.Status(ctx, w)
		if err != nil {
			return fmt.Errorf("failed to get wallet status: %w", err)
		}
		return printValue(cmd, statusCmdResponse{s})
	},
}

type statusCmdResponse struct {
	*wallet.Status
}

func (r statusCmdResponse) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "wallet:     %s\n", r.Wallet)
	fmt.Fprintf(&sb, "owner:      %s\n", r.Owner)
	fmt.Fprintf(&sb, "masterCopy: %s\n", r.MasterCopy)
	fmt.Fprintf(&sb, "locked:     %t\n", r.Locked)
	fmt.Fprintf(&sb, "nonce:      %d\n", r.Nonce)
	fmt.Fprintf(&sb, "lastActive: %s\n", time.Unix(r.LastActive, 0).UTC().Format(time.RFC3339))
	if r.Inheritor != codec.EmptyAddress {
		fmt.Fprintf(&sb, "inheritor:  %s (from %s)\n", r.Inheritor, time.Unix(r.InheritableAt, 0).UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "quorum:     %d\n", r.Quorum)
	for _, g := range r.Guardians {
		fmt.Fprintf(&sb, "guardian:   %s %s %d\n", g.Addr, g.Status, g.EffectiveTime)
	}
	if r.Quota != nil {
		fmt.Fprintf(&sb, "quota:      %s available of %s\n", utils.FormatAmount(r.Quota.Available), utils.FormatAmount(r.Quota.Effective))
		if r.Quota.PendingUntil != 0 {
			fmt.Fprintf(&sb, "pending:    %s at %d\n", utils.FormatAmount(r.Quota.Pending), r.Quota.PendingUntil)
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

var balanceCmd = &cobra.Command{
	Use:   "balance ADDRESS",
	Short: "Print the balance of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		owner, err := parseAddress("address", args[0])
		if err != nil {
			return err
		}
		token, err := parseOptionalAddress("token", tokenFlag)
		if err != nil {
			return err
		}
		cli, err := newClient(cmd)
		if err != nil {
			return err
		}
		amount, err := cli.Balance(ctx, owner, token)
		if err != nil {
			return fmt.Errorf("failed to get balance: %w", err)
		}
		return printValue(cmd, balanceCmdResponse{Amount: amount})
	},
}

type balanceCmdResponse struct {
	Amount *uint256.Int `json:"amount"`
}

func (r balanceCmdResponse) String() string {
	return utils.FormatAmount(r.Amount)
}

var depositCmd = &cobra.Command{
	Use:   "deposit [WALLET] [AMOUNT]",
	Short: "Fund a wallet (only when the service allows deposits)",
	Long:  "Fund a wallet (only when the service allows deposits). Missing arguments are prompted for.",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := addressArg(args, 0, "wallet")
		if err != nil {
			return err
		}
		amount, err := amountArg(args, 1, "amount")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		token, err := parseOptionalAddress("token", tokenFlag)
		if err != nil {
			return err
		}
		cli, err := newClient(cmd)
		if err != nil {
			return err
		}
		res, err := cli.Deposit(ctx, w, token, amount)
		if err != nil {
			return fmt.Errorf("failed to deposit: %w", err)
		}
		return printValue(cmd, resultCmdResponse{res})
	},
}

// addressArg reads positional argument [i], prompting when it is absent.
func addressArg(args []string, i int, label string) (common.Address, error) {
	if i < len(args) {
		return parseAddress(label, args[i])
	}
	return prompt.Address(label)
}

func amountArg(args []string, i int, label string) (*uint256.Int, error) {
	if i < len(args) {
		return utils.ParseAmount(args[i])
	}
	return prompt.Amount(label)
}

// callerAuth signs the hash built by [hash] on behalf of the configured
// key, valid for --valid-for from the service clock.
func callerAuth(
	ctx context.Context,
	cmd *cobra.Command,
	w common.Address,
	hash func(status *wallet.Status, validUntil int64) (common.Hash, error),
) (*wallet.CallerAuth, error) {
	signer, err := loadSigner(cmd)
	if err != nil {
		return nil, err
	}
	cli, err := newClient(cmd)
	if err != nil {
		return nil, err
	}
	status, err := cli.Status(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet status: %w", err)
	}
	validUntil := status.Timestamp + int64(callerValidFor/time.Second)
	h, err := hash(status, validUntil)
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignHash(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return &wallet.CallerAuth{Caller: signer.Address(), ValidUntil: validUntil, Signature: sig}, nil
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock a wallet as its owner or one of its guardians",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		w, err := parseAddress("wallet", callerWallet)
		if err != nil {
			return err
		}
		cli, err := newClient(cmd)
		if err != nil {
			return err
		}
		chainID, err := cli.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("failed to get chain id: %w", err)
		}
		ca, err := callerAuth(ctx, cmd, w, func(s *wallet.Status, validUntil int64) (common.Hash, error) {
			return wallet.LockHash(chainID, s.MasterCopy, w, validUntil)
		})
		if err != nil {
			return err
		}
		res, err := cli.Lock(ctx, w, ca)
		if err != nil {
			return fmt.Errorf("failed to lock: %w", err)
		}
		return printValue(cmd, resultCmdResponse{res})
	},
}

var inheritCmd = &cobra.Command{
	Use:   "inherit",
	Short: "Take over a wallet as its inheritor",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		w, err := parseAddress("wallet", callerWallet)
		if err != nil {
			return err
		}
		newOwner, err := parseAddress("new-owner", inheritNewOwner)
		if err != nil {
			return err
		}
		cli, err := newClient(cmd)
		if err != nil {
			return err
		}
		chainID, err := cli.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("failed to get chain id: %w", err)
		}
		ca, err := callerAuth(ctx, cmd, w, func(s *wallet.Status, validUntil int64) (common.Hash, error) {
			return wallet.InheritHash(chainID, s.MasterCopy, w, validUntil, newOwner, inheritClearGuardians)
		})
		if err != nil {
			return err
		}
		if cont, err := confirm(cmd); err != nil || !cont {
			return err
		}
		res, err := cli.Inherit(ctx, w, newOwner, inheritClearGuardians, ca)
		if err != nil {
			return fmt.Errorf("failed to inherit: %w", err)
		}
		return printValue(cmd, resultCmdResponse{res})
	},
}

var consumedCmd = &cobra.Command{
	Use:   "consumed WALLET DIGEST",
	Short: "Check whether an approval digest was used",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		w, err := parseAddress("wallet", args[0])
		if err != nil {
			return err
		}
		cli, err := newClient(cmd)
		if err != nil {
			return err
		}
		consumed, err := cli.IsConsumed(ctx, w, common.HexToHash(args[1]))
		if err != nil {
			return fmt.Errorf("failed to check digest: %w", err)
		}
		return printValue(cmd, consumedCmdResponse{Consumed: consumed})
	},
}

type consumedCmdResponse struct {
	Consumed bool `json:"consumed"`
}

func (r consumedCmdResponse) String() string {
	return fmt.Sprintf("%t", r.Consumed)
}

func init() {
	createCmd.Flags().StringVar(&createWallet, "wallet", "", "Wallet address")
	createCmd.Flags().StringVar(&createOwner, "owner", "", "Owner address (defaults to the key's address)")
	createCmd.Flags().StringVar(&createMasterCopy, "master-copy", "", "Master copy address")
	createCmd.Flags().StringSliceVar(&createArgs.guardians, "guardian", nil, "Guardian address (repeatable)")
	createCmd.Flags().StringVar(&createArgs.amount, "quota", "", "Initial daily quota")

	balanceCmd.Flags().StringVar(&tokenFlag, "token", "", "Token address (native asset if empty)")
	depositCmd.Flags().StringVar(&tokenFlag, "token", "", "Token address (native asset if empty)")

	for _, c := range []*cobra.Command{lockCmd, inheritCmd} {
		c.Flags().StringVar(&callerWallet, "wallet", "", "Wallet address")
		c.Flags().DurationVar(&callerValidFor, "valid-for", 5*time.Minute, "Signature lifetime")
	}
	inheritCmd.Flags().StringVar(&inheritNewOwner, "new-owner", "", "Owner after inheritance")
	inheritCmd.Flags().BoolVar(&inheritClearGuardians, "clear-guardians", false, "Remove every guardian")

	rootCmd.AddCommand(createCmd, statusCmd, balanceCmd, depositCmd, lockCmd, inheritCmd, consumedCmd)
}
