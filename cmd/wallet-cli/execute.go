// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/ava-labs/guardianwallet/approval"
	"github.com/ava-labs/guardianwallet/auth"
	"github.com/ava-labs/guardianwallet/utils"
	"github.com/ava-labs/guardianwallet/wallet"
)

var errNoGuardianKeys = errors.New("at least one --guardian-key is required")

var (
	execArgs   actionArgs
	execWallet string

	approveArgs     actionArgs
	approveWallet   string
	approveKeys     []string
	approveValidFor time.Duration
)

var execCmd = &cobra.Command{
	Use:   "exec ACTION",
	Short: "Submit an owner-signed action on the normal path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		a, err := buildAction(args[0], &execArgs)
		if err != nil {
			return err
		}
		w, err := parseAddress("wallet", execWallet)
		if err != nil {
			return err
		}
		signer, err := loadSigner(cmd)
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
		status, err := cli.Status(ctx, w)
		if err != nil {
			return fmt.Errorf("failed to get wallet status: %w", err)
		}

		nonce := status.Nonce + 1
		hash, err := wallet.NormalHash(chainID, status.MasterCopy, w, nonce, a)
		if err != nil {
			return err
		}
		sig, err := signer.SignHash(ctx, hash)
		if err != nil {
			return fmt.Errorf("failed to sign: %w", err)
		}

		utils.Outf("{{yellow}}action:{{/}} %s {{yellow}}nonce:{{/}} %d {{yellow}}hash:{{/}} %s\n", a.Schema().Name, nonce, hash)
		if cont, err := confirm(cmd); err != nil || !cont {
			return err
		}
		res, err := cli.ExecuteNormal(ctx, w, nonce, a, sig)
		if err != nil {
			return fmt.Errorf("failed to execute: %w", err)
		}
		return printValue(cmd, resultCmdResponse{res})
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve ACTION",
	Short: "Collect guardian signatures and submit an action on the approval path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		a, err := buildAction(args[0], &approveArgs)
		if err != nil {
			return err
		}
		w, err := parseAddress("wallet", approveWallet)
		if err != nil {
			return err
		}
		if len(approveKeys) == 0 {
			return errNoGuardianKeys
		}
		guardians := make([]auth.HashSigner, 0, len(approveKeys))
		for _, k := range approveKeys {
			s, err := signerFrom(k)
			if err != nil {
				return fmt.Errorf("failed to decode guardian key: %w", err)
			}
			guardians = append(guardians, s)
		}
		cli, err := newClient(cmd)
		if err != nil {
			return err
		}
		chainID, err := cli.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("failed to get chain id: %w", err)
		}
		status, err := cli.Status(ctx, w)
		if err != nil {
			return fmt.Errorf("failed to get wallet status: %w", err)
		}

		var validUntil int64
		if approveValidFor > 0 {
			validUntil = status.Timestamp + int64(approveValidFor/time.Second)
		}
		salt, err := approval.NewSalt()
		if err != nil {
			return err
		}
		hash, err := wallet.ApprovalHash(chainID, status.MasterCopy, w, a, validUntil, salt)
		if err != nil {
			return err
		}
		bundle, err := approval.NewCollector(len(guardians), guardians...).Collect(ctx, hash, validUntil, salt)
		if err != nil {
			return fmt.Errorf("failed to collect signatures: %w", err)
		}
		var ownerSig []byte
		if a.RequiresOwner() {
			owner, err := loadSigner(cmd)
			if err != nil {
				return err
			}
			ownerSig, err = owner.SignHash(ctx, hash)
			if err != nil {
				return fmt.Errorf("failed to sign: %w", err)
			}
		}

		utils.Outf(
			"{{yellow}}action:{{/}} %s {{yellow}}signers:{{/}} %d/%d {{yellow}}digest:{{/}} %s\n",
			a.Schema().Name,
			len(bundle.Signers),
			status.Quorum,
			hash,
		)
		if cont, err := confirm(cmd); err != nil || !cont {
			return err
		}
		res, err := cli.ExecuteWithApproval(ctx, w, a, bundle, ownerSig)
		if err != nil {
			return fmt.Errorf("failed to execute: %w", err)
		}
		return printValue(cmd, resultCmdResponse{res})
	},
}

type resultCmdResponse struct {
	*wallet.Result
}

func (r resultCmdResponse) String() string {
	var sb strings.Builder
	if r.Digest != (common.Hash{}) {
		fmt.Fprintf(&sb, "digest: %s\n", r.Digest)
	}
	for _, record := range r.Records {
		fmt.Fprintln(&sb, record.String())
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func init() {
	names := strings.Join(actionNames(), ", ")
	execCmd.Long = "Actions: " + names
	approveCmd.Long = "Actions: " + names

	addActionFlags(execCmd, &execArgs)
	execCmd.Flags().StringVar(&execWallet, "wallet", "", "Wallet address")

	addActionFlags(approveCmd, &approveArgs)
	approveCmd.Flags().StringVar(&approveWallet, "wallet", "", "Wallet address")
	approveCmd.Flags().StringSliceVar(&approveKeys, "guardian-key", nil, "Guardian key as hex or key file (repeatable)")
	approveCmd.Flags().DurationVar(&approveValidFor, "valid-for", 0, "Approval lifetime (never expires if zero)")

	rootCmd.AddCommand(execCmd, approveCmd)
}
