// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cilium/monitoring-poc/cmd/pocctl/common"
	"github.com/cilium/monitoring-poc/pkg/logger"
)

var (
	rootCmd *cobra.Command
)

func main() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	rootCmd = &cobra.Command{
		Use:          "pocctl",
		Short:        "Monitoring POC CLI",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Help()
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if common.Debug {
				logger.DefaultLogger.SetLevel(logrus.DebugLevel)
			}
		},
	}
	// by default, it fallbacks to stderr
	rootCmd.SetOut(os.Stdout)

	addCommands(rootCmd)
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&common.Debug, common.KeyDebug, "d", false, "Enable debug messages")
	flags.StringVar(&common.ServerAddress, common.KeyServerAddress, "", "HTTP server address")
	flags.DurationVar(&common.Timeout, common.KeyTimeout, 30*time.Second, "Request timeout")
	flags.IntVar(&common.Retries, common.KeyRetries, 1, "Connection retries with exponential backoff")
	return rootCmd
}
