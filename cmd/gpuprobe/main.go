package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/LouYuanbo1/vizcapture/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/vizcapture/internal/infra/logging"
	"github.com/LouYuanbo1/vizcapture/internal/service/probe"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		mac        bool
		bin        string
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "gpuprobe",
		Short: "Report which GPU, if any, the headless browser renders WebGL with",
		Long: `Launches the headless browser with the same GL flags the capture uses and
prints the browser version and the WebGL renderer string, one per line.
"Google SwiftShader" means software emulation, which is very slow.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			switch {
			case bin != "":
				cfg.Rod.Bin = bin
			case mac:
				cfg.Rod.Bin = cfg.Rod.MacBin
			}
			log := logging.New(cfg.Log, cmd.ErrOrStderr(), true)

			r, err := probe.InitProbeService(chrome.LaunchRodBrowser, cfg.Rod, log).Probe(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r.Version)
			fmt.Fprintln(out, r.Renderer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&mac, "mac", false, "use the standard Chrome install location on macOS")
	cmd.Flags().StringVar(&bin, "bin", "", "browser executable (overrides --mac)")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (json or yaml) merged over the defaults")
	return cmd
}
