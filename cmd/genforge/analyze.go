package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"genforge/internal/axispipeline"
)

func newAnalyzeCmd() *cobra.Command {
	var prompt, language, format string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the streaming multi-axis analysis pipeline for a prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := axispipeline.Request{Prompt: prompt, Language: language}

			events, err := axispipeline.Analyze(cmd.Context(), req, axispipeline.Analyzers{})
			if err != nil {
				return err
			}

			var final *axispipeline.FinalResult
			for ev := range events {
				if format == "json" {
					line, err := json.Marshal(ev)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(line))
				}
				if ev.Type == axispipeline.EventFinal {
					final = ev.Final
				}
			}

			if format != "json" && final != nil {
				out, err := json.MarshalIndent(final, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "analysis prompt (required)")
	cmd.Flags().StringVar(&language, "language", "en", "language hint (ja|en)")
	cmd.Flags().StringVar(&format, "format", "summary", "output format: summary|json (streams each event as a JSON line)")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}
