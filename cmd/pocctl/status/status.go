// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package status

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cilium/monitoring-poc/cmd/pocctl/common"
	"github.com/cilium/monitoring-poc/pkg/server"
)

func getStatus(ctx context.Context, c *common.Client) (*server.DetailedHealth, error) {
	var h server.DetailedHealth
	if err := c.GetJSON(ctx, "/health/detailed", &h); err != nil {
		return nil, fmt.Errorf("status error: %w", err)
	}
	return &h, nil
}

func printStatus(w io.Writer, h *server.DetailedHealth, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(h)
	}

	fmt.Fprintf(w, "Health Status: %s\n", h.Status)
	fmt.Fprintf(w, "Uptime: %s\n", time.Duration(h.Uptime*float64(time.Second)).Round(time.Second))
	fmt.Fprintln(w, "Components:")
	for _, name := range slices.Sorted(maps.Keys(h.Components)) {
		state := "unhealthy"
		if h.Components[name] {
			state = "healthy"
		}
		fmt.Fprintf(w, "  %s: %s\n", name, state)
	}
	fmt.Fprintln(w, "Memory:")
	for _, typ := range slices.Sorted(maps.Keys(h.Memory)) {
		fmt.Fprintf(w, "  %s: %s\n", typ, h.Memory[typ])
	}
	fmt.Fprintln(w, "Active requests:")
	for _, method := range slices.Sorted(maps.Keys(h.ActiveRequests)) {
		fmt.Fprintf(w, "  %s: %g\n", method, h.ActiveRequests[method])
	}
	return nil
}

func New() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print health status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch output {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("invalid output format %q, expected text, json or yaml", output)
			}
			return common.CliRun(func(ctx context.Context, c *common.Client) error {
				h, err := getStatus(ctx, c)
				if err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), h, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, common.KeyOutput, "o", "text", "Output format. text, json or yaml")
	return cmd
}
