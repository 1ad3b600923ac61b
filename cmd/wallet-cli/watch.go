// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ava-labs/guardianwallet/rpc"
	"github.com/ava-labs/guardianwallet/utils"
)

var watchWallet string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream committed operations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		endpoint, err := getConfigValue(cmd, "endpoint", true)
		if err != nil {
			return fmt.Errorf("failed to get endpoint: %w", err)
		}
		cli, err := rpc.NewWebSocketClient(endpoint)
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		go func() {
			<-ctx.Done()
			_ = cli.Close()
		}()

		if watchWallet == "" {
			err = cli.SubscribeAll(ctx)
		} else {
			w, perr := parseAddress("wallet", watchWallet)
			if perr != nil {
				return perr
			}
			err = cli.SubscribeWallet(ctx, w)
		}
		if err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}

		for {
			b, err := cli.ListenBatch(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			utils.Outf("{{cyan}}%s{{/}} %s at %d\n", b.Operation, b.Wallet, b.Timestamp)
			for _, r := range b.Records {
				utils.Outf("  %s\n", r)
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchWallet, "wallet", "", "Only stream this wallet")
	rootCmd.AddCommand(watchCmd)
}
