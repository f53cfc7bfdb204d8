// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package bugtool

import (
	"github.com/spf13/cobra"

	"github.com/cilium/monitoring-poc/cmd/pocctl/common"
	"github.com/cilium/monitoring-poc/pkg/bugtool"
)

var (
	outFile string
	gops    string
)

func New() *cobra.Command {
	bugtoolCmd := &cobra.Command{
		Use:   "bugtool",
		Short: "Produce a tar archive with debug information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return bugtool.Bugtool(cmd.Context(), outFile, common.ServerAddress, gops)
		},
	}

	flags := bugtoolCmd.Flags()
	flags.StringVarP(&outFile, "out", "o", "monitoring-poc-bugtool.tar.gz", "Output filename")
	flags.StringVar(&gops, "gops", "", "Path to gops binary")
	return bugtoolCmd
}
