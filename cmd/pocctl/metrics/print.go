// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/cilium/monitoring-poc/cmd/pocctl/common"
)

const printExamples = `  # Print every metric exposed by the server
  pocctl metrics print

  # Print the HTTP metrics only
  pocctl metrics print http_

  # Print as JSON
  pocctl metrics print -o json`

func newPrintCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "print [prefix...]",
		Short:   "Scrape and print the metrics of a running server",
		Example: printExamples,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("invalid output format %q, expected text or json", output)
			}
			return common.CliRun(func(ctx context.Context, c *common.Client) error {
				families, err := scrape(ctx, c)
				if err != nil {
					return err
				}
				families = filterFamilies(families, args)
				if output == "json" {
					return printJSON(cmd.OutOrStdout(), families)
				}
				printText(cmd.OutOrStdout(), families)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, common.KeyOutput, "o", "text", "Output format. text or json")
	return cmd
}

func scrape(ctx context.Context, c *common.Client) (map[string]*dto.MetricFamily, error) {
	body, err := c.Get(ctx, "/metrics")
	if err != nil {
		return nil, err
	}
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}
	return families, nil
}

func filterFamilies(families map[string]*dto.MetricFamily, prefixes []string) map[string]*dto.MetricFamily {
	if len(prefixes) == 0 {
		return families
	}
	ret := make(map[string]*dto.MetricFamily)
	for name, mf := range families {
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				ret[name] = mf
				break
			}
		}
	}
	return ret
}

func labelString(m *dto.Metric) string {
	if len(m.GetLabel()) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func printText(w io.Writer, families map[string]*dto.MetricFamily) {
	name := color.New(color.FgCyan, color.Bold)
	kind := color.New(color.FgYellow)
	for _, n := range slices.Sorted(maps.Keys(families)) {
		mf := families[n]
		name.Fprint(w, n)
		fmt.Fprint(w, " ")
		kind.Fprintf(w, "(%s)", strings.ToLower(mf.GetType().String()))
		fmt.Fprintf(w, " %s\n", mf.GetHelp())
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "  %s %s\n", labelString(m), formatFloat(m.GetCounter().GetValue()))
			case dto.MetricType_GAUGE:
				fmt.Fprintf(w, "  %s %s\n", labelString(m), formatFloat(m.GetGauge().GetValue()))
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Fprintf(w, "  %s count=%d sum=%s\n", labelString(m), h.GetSampleCount(), formatFloat(h.GetSampleSum()))
			default:
				fmt.Fprintf(w, "  %s %s\n", labelString(m), formatFloat(m.GetUntyped().GetValue()))
			}
		}
	}
}

type jsonSample struct {
	Labels map[string]string `json:"labels,omitempty"`
	Value  *float64          `json:"value,omitempty"`
	Count  *uint64           `json:"count,omitempty"`
	Sum    *float64          `json:"sum,omitempty"`
}

type jsonFamily struct {
	Name    string       `json:"name"`
	Type    string       `json:"type"`
	Help    string       `json:"help"`
	Samples []jsonSample `json:"samples"`
}

func printJSON(w io.Writer, families map[string]*dto.MetricFamily) error {
	out := make([]jsonFamily, 0, len(families))
	for _, n := range slices.Sorted(maps.Keys(families)) {
		mf := families[n]
		jf := jsonFamily{
			Name:    n,
			Type:    strings.ToLower(mf.GetType().String()),
			Help:    mf.GetHelp(),
			Samples: make([]jsonSample, 0, len(mf.GetMetric())),
		}
		for _, m := range mf.GetMetric() {
			s := jsonSample{}
			if len(m.GetLabel()) > 0 {
				s.Labels = make(map[string]string, len(m.GetLabel()))
				for _, l := range m.GetLabel() {
					s.Labels[l.GetName()] = l.GetValue()
				}
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				v := m.GetCounter().GetValue()
				s.Value = &v
			case dto.MetricType_GAUGE:
				v := m.GetGauge().GetValue()
				s.Value = &v
			case dto.MetricType_HISTOGRAM:
				count, sum := m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()
				s.Count, s.Sum = &count, &sum
			default:
				v := m.GetUntyped().GetValue()
				s.Value = &v
			}
			jf.Samples = append(jf.Samples, s)
		}
		out = append(out, jf)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
