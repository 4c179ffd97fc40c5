package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"genforge/internal/forge"
	"genforge/internal/providers"
)

func newGenerateCmd() *cobra.Command {
	var prompt, style, imageEndpoint, videoEndpoint string
	var skipAnimation bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the generation forge for a single prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd.Context())
			if imageEndpoint == "" || videoEndpoint == "" {
				return fmt.Errorf("generate: --image-endpoint and --video-endpoint are required")
			}

			images, err := providers.NewHTTPImageProvider(imageEndpoint, cfg.APIKey)
			if err != nil {
				return err
			}
			videos, err := providers.NewHTTPVideoProvider(videoEndpoint, cfg.APIKey)
			if err != nil {
				return err
			}
			f, err := forge.New(cfg.APIKey, images, videos, cfg.CacheCapacity)
			if err != nil {
				return err
			}

			result := f.Generate(cmd.Context(), forge.Request{
				Prompt:        prompt,
				Style:         forge.Style(style),
				SkipAnimation: skipAnimation,
			})

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if result.Status == forge.StatusFailed {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "generation prompt (required)")
	cmd.Flags().StringVar(&style, "style", string(forge.StyleIllustration), "style directive")
	cmd.Flags().StringVar(&imageEndpoint, "image-endpoint", "", "image provider HTTP endpoint")
	cmd.Flags().StringVar(&videoEndpoint, "video-endpoint", "", "video provider HTTP endpoint")
	cmd.Flags().BoolVar(&skipAnimation, "skip-animation", false, "only generate the illustration")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}
