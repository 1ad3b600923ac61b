// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ava-labs/guardianwallet/rpc"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Manage endpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		endpoint, err := getConfigValue(cmd, "endpoint", true)
		if err != nil {
			return fmt.Errorf("failed to get endpoint: %w", err)
		}
		return printValue(cmd, endpointCmdResponse{
			Endpoint: endpoint,
		})
	},
}

var endpointSetCmd = &cobra.Command{
	Use:   "set URL",
	Short: "Store the default endpoint after checking it answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ok, err := rpc.NewJSONRPCClient(args[0]).Ping(ctx)
		if err != nil {
			return fmt.Errorf("failed to ping endpoint: %w", err)
		}
		if !ok {
			return fmt.Errorf("endpoint %s is not healthy", args[0])
		}
		if err := setConfigValue("endpoint", args[0]); err != nil {
			return fmt.Errorf("failed to save endpoint: %w", err)
		}
		return printValue(cmd, endpointCmdResponse{
			Endpoint: args[0],
		})
	},
}

type endpointCmdResponse struct {
	Endpoint string `json:"endpoint"`
}

func (r endpointCmdResponse) String() string {
	return r.Endpoint
}

func init() {
	endpointCmd.AddCommand(endpointSetCmd)
	rootCmd.AddCommand(endpointCmd)
}
