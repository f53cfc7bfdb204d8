// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"fmt"
	"io"

	"github.com/isovalent/metricstool/pkg/metricsmd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cilium/monitoring-poc/pkg/metrics/config"
	"github.com/cilium/monitoring-poc/pkg/version"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Inspect and document metrics",
	}
	cmd.AddCommand(newPrintCmd(), newDocsCmd())
	return cmd
}

// Theses metrics take VCS info into account supplied at build time, which
// changes every build, so override those.
var overrides = []metricsmd.LabelOverrides{
	{
		Metric: "app_build_info",
		Overrides: []metricsmd.LabelValues{
			{
				Label:  "commit",
				Values: []string{"931b70f2c9878ba985ba6b589827bea17da6ec33"},
			},
			{
				Label:  "go_version",
				Values: []string{"go1.23.0"},
			},
			{
				Label:  "modified",
				Values: []string{"false"},
			},
			{
				Label:  "time",
				Values: []string{"2024-09-02T10:04:12Z"},
			},
			{
				Label:  "version",
				Values: []string{"v2.0.0"},
			},
		},
	},
}

func newDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Generate Markdown reference of the exposed metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generateDocs(cmd.OutOrStdout())
		},
	}
}

func generateDocs(w io.Writer) error {
	reg := prometheus.NewRegistry()
	if err := initMetrics(reg); err != nil {
		return err
	}
	return metricsmd.Generate(reg, w, &metricsmd.Config{LabelOverrides: overrides})
}

func initMetrics(reg *prometheus.Registry) error {
	appReg, err := config.InitMetricsForDocs()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if err := reg.Register(appReg); err != nil {
		return err
	}
	return reg.Register(version.NewBuildInfoCollector())
}
