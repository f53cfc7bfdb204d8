// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"github.com/spf13/cobra"

	"github.com/cilium/monitoring-poc/cmd/pocctl/bugtool"
	"github.com/cilium/monitoring-poc/cmd/pocctl/load"
	"github.com/cilium/monitoring-poc/cmd/pocctl/metrics"
	"github.com/cilium/monitoring-poc/cmd/pocctl/status"
	"github.com/cilium/monitoring-poc/cmd/pocctl/version"
)

func addCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(version.New())
	rootCmd.AddCommand(status.New())
	rootCmd.AddCommand(metrics.New())
	rootCmd.AddCommand(load.New())
	rootCmd.AddCommand(bugtool.New())
}
