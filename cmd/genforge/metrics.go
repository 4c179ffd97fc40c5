package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"genforge/internal/providers"
)

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print latency and error-rate metrics recorded by the reference HTTP providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := json.MarshalIndent(providers.Metrics().Snapshot(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
