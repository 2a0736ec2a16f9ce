package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/LouYuanbo1/vizcapture/internal/domain/model"
	"github.com/LouYuanbo1/vizcapture/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/vizcapture/internal/infra/crawler/collector"
	"github.com/LouYuanbo1/vizcapture/internal/infra/logging"
	"github.com/LouYuanbo1/vizcapture/internal/infra/raster"
	"github.com/LouYuanbo1/vizcapture/internal/infra/server"
	"github.com/LouYuanbo1/vizcapture/internal/service/capture"
	"github.com/LouYuanbo1/vizcapture/internal/service/capture/param"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	configPath string
	filter     string
	serve      string
	port       int
	params     string
	quiet      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "vizcapture <initialUrl> <outputDirectory> <limit>",
		Short: "Capture one PNG per catalog item of a WebGL visualization page",
		Long: `Drives a headless browser through the visualization's catalog starting at
initialUrl and writes <prefix>.png into outputDirectory for every item, stopping
after limit frames (no limit if limit<=0) or when the catalog is exhausted.

With --serve, the visualization directory is served locally and initialUrl may be
a path relative to it, e.g. index.html.`,
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (json or yaml) merged over the defaults")
	flags.StringVar(&opts.filter, "filter", "", "only capture catalog items whose prefix contains this string")
	flags.StringVar(&opts.serve, "serve", "", "serve this visualization directory and resolve initialUrl against it")
	flags.IntVar(&opts.port, "port", 0, "port for --serve (default from config, 9393)")
	flags.StringVar(&opts.params, "params", "", "URL or URL arguments carrying the initial item and/or camera settings")
	flags.BoolVar(&opts.quiet, "quiet", false, "only log warnings and errors")
	return cmd
}

func run(ctx context.Context, args []string, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	log := logging.New(cfg.Log, os.Stderr, opts.quiet)

	limit, err := strconv.Atoi(strings.TrimSpace(args[2]))
	if err != nil {
		return fmt.Errorf("limit must be an integer: %w", err)
	}
	outDir, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}
	persister, err := raster.NewPersister(afero.NewOsFs(), outDir)
	if err != nil {
		return err
	}

	var srv *server.Server
	var base *url.URL
	if opts.serve != "" {
		srv, err = server.Listen(opts.serve, cfg.Server, log)
		if err != nil {
			return err
		}
		base = srv.BaseURL()
	}
	startURL, err := initialURL(args[0], base, opts.params)
	if err != nil {
		return err
	}

	params := &param.Capture{
		InitialURL: startURL,
		OutputDir:  outDir,
		Limit:      limit,
		Filter:     opts.filter,
	}

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()
	if srv != nil {
		g.Go(func() error {
			return srv.Serve(serveCtx)
		})
	}

	var summary *model.Summary
	g.Go(func() error {
		defer stopServer()
		if cfg.Capture.Preflight {
			if err := preflight(gctx, cfg, startURL, log); err != nil {
				return err
			}
		}
		var err error
		summary, err = capture.Execute(gctx, chrome.LaunchChromedpSession, persister, cfg, params, log)
		return err
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("capture failed")
		return err
	}

	report(summary, outDir, log)
	return nil
}

// preflight fetches the page before a browser is launched. An unreachable
// page is fatal; missing page elements are only reported.
func preflight(ctx context.Context, cfg *config.Config, pageURL string, log logrus.FieldLogger) error {
	check := collector.InitCollyPreflight(cfg.Capture.PreflightSelectors, cfg.Chromedp.NavigateTimeout(), log)
	rep, err := check.Check(ctx, pageURL)
	if errors.Is(err, collector.ErrUnsupportedScheme) {
		log.WithError(err).Debug("preflight skipped")
		return nil
	}
	if err != nil {
		return err
	}
	if len(rep.Missing) > 0 {
		log.WithFields(logrus.Fields{
			"url":     pageURL,
			"missing": rep.Missing,
		}).Warn("page is missing expected elements")
	}
	return nil
}

// initialURL resolves raw against base when serving locally and applies
// params, which may be a full URL whose query is used.
func initialURL(raw string, base *url.URL, params string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("initial url %q: %w", raw, err)
	}
	if base != nil {
		if raw == "" {
			u = &url.URL{Path: server.IndexFile}
		}
		u = base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("initial url %q must be absolute unless --serve is set", raw)
	}

	if i := strings.Index(params, "?"); i >= 0 {
		params = params[i+1:]
	}
	if params != "" {
		if u.RawQuery != "" {
			u.RawQuery += "&" + params
		} else {
			u.RawQuery = params
		}
	}
	return u.String(), nil
}

func report(summary *model.Summary, outDir string, log logrus.FieldLogger) {
	for _, r := range summary.Failed() {
		log.WithFields(logrus.Fields{
			"index":  r.Item.Index,
			"prefix": r.Item.Prefix,
			"url":    r.URL,
			"stage":  r.Stage,
		}).WithError(r.Err).Warn("item not captured")
	}
	log.WithFields(logrus.Fields{
		"written": summary.Written,
		"failed":  len(summary.Failed()),
		"reason":  summary.Reason,
	}).Infof("frames written to %s", outDir)
}
