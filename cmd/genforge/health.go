package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"genforge/internal/health"
)

func newHealthCmd() *cobra.Command {
	var services []string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe configured service endpoints and print aggregated health",
		RunE: func(cmd *cobra.Command, args []string) error {
			configs := make([]health.ServiceConfig, 0, len(services))
			for _, spec := range services {
				name, url, ok := strings.Cut(spec, "=")
				if !ok {
					return fmt.Errorf("health: malformed --service %q, expected name=url", spec)
				}
				configs = append(configs, health.ServiceConfig{
					Name:  name,
					Probe: httpProbe(url),
				})
			}

			monitor := health.NewMonitor(configs)
			status := monitor.Check(cmd.Context())

			out, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&services, "service", nil, "name=url pair to probe; repeatable")
	return cmd
}

func httpProbe(url string) health.Prober {
	client := &http.Client{Timeout: 5 * time.Second}
	return func(ctx context.Context) (health.ServiceHealth, error) {
		started := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return health.ServiceHealth{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return health.ServiceHealth{}, err
		}
		defer resp.Body.Close()

		latency := time.Since(started).Milliseconds()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return health.ServiceHealth{Status: health.StatusOK, LatencyMs: latency, LastCheck: time.Now()}, nil
		}
		return health.ServiceHealth{Status: health.StatusDown, LatencyMs: latency, LastCheck: time.Now(), Error: fmt.Sprintf("status %d", resp.StatusCode)}, nil
	}
}
