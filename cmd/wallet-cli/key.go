// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/ava-labs/guardianwallet/auth"
	"github.com/ava-labs/guardianwallet/utils"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage keys",
}

var keyGenerateCmd = &cobra.Command{
	Use:   "generate FILE",
	Short: "Write a new private key to FILE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := auth.GeneratePrivateKeySigner()
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		if err := utils.SaveBytes(args[0], signer.Bytes()); err != nil {
			return fmt.Errorf("failed to save key: %w", err)
		}
		return printValue(cmd, keyAddressCmdResponse{Address: signer.Address()})
	},
}

var keySetCmd = &cobra.Command{
	Use:   "set KEY",
	Short: "Store the default key (hex or key file)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := signerFrom(args[0])
		if err != nil {
			return fmt.Errorf("failed to decode key: %w", err)
		}
		if err := setConfigValue("key", args[0]); err != nil {
			return fmt.Errorf("failed to save key: %w", err)
		}
		return printValue(cmd, keyAddressCmdResponse{Address: signer.Address()})
	},
}

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print current key address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		signer, err := loadSigner(cmd)
		if err != nil {
			return err
		}
		return printValue(cmd, keyAddressCmdResponse{Address: signer.Address()})
	},
}

type keyAddressCmdResponse struct {
	Address common.Address `json:"address"`
}

func (r keyAddressCmdResponse) String() string {
	return r.Address.Hex()
}

func init() {
	keyCmd.AddCommand(keyGenerateCmd, keySetCmd, addressCmd)
	rootCmd.AddCommand(keyCmd)
}
