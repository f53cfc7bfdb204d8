// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package version

import (
	"bytes"
	"context"
	"fmt"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/cilium/monitoring-poc/cmd/pocctl/common"
	"github.com/cilium/monitoring-poc/pkg/version"
)

const examples = `  # Retrieve version from server
  pocctl version --server

  # Get build info for the CLI
  pocctl version --build`

var (
	server bool
	build  bool
)

// serverVersion reads the version label of the build info metric exposed by
// the server.
func serverVersion(ctx context.Context, c *common.Client) (string, error) {
	body, err := c.Get(ctx, "/metrics")
	if err != nil {
		return "", err
	}
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	mf, ok := families[version.BuildInfoMetric]
	if !ok || len(mf.GetMetric()) == 0 {
		return "", fmt.Errorf("server does not expose %s", version.BuildInfoMetric)
	}
	for _, l := range mf.GetMetric()[0].GetLabel() {
		if l.GetName() == "version" {
			return l.GetValue(), nil
		}
	}
	return "", fmt.Errorf("%s has no version label", version.BuildInfoMetric)
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Print version from CLI and server",
		Example: examples,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "CLI version: %s\n", version.Version)

			if server {
				err := common.CliRun(func(ctx context.Context, c *common.Client) error {
					v, err := serverVersion(ctx, c)
					if err != nil {
						return fmt.Errorf("error retrieving server version: %w", err)
					}
					fmt.Fprintf(out, "Server version: %s\n", v)
					return nil
				})
				if err != nil {
					return err
				}
			}

			if build {
				if err := version.ReadBuildInfo().Fprint(out); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&server, "server", "s", false, "Connect and retrieve version from the server")
	flags.BoolVarP(&build, "build", "b", false, "Show CLI build information")
	return cmd
}
