// Command generate renders a content bundle into a static site directory
// that any file server or object store can publish.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/folio-labs/folio-web/internal/cfg"
	"github.com/folio-labs/folio-web/internal/content"
	"github.com/folio-labs/folio-web/internal/log"
	"github.com/folio-labs/folio-web/internal/site"
	v "github.com/folio-labs/folio-web/internal/version"
)

type options struct {
	contentDir string
	outDir     string
	siteURL    string
	basePath   string
	logLevel   string
	logJSON    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "generate:", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.contentDir, "content", "", "content bundle directory; empty renders the embedded seed")
	fs.StringVar(&o.outDir, "out", "dist", "output directory")
	fs.StringVar(&o.siteURL, "site-url", "", "absolute public URL of the site root (required)")
	fs.StringVar(&o.basePath, "base-path", "", "path prefix when published below the host root, e.g. /portfolio")
	fs.StringVar(&o.logLevel, "log-level", "info", "debug|info|warn|error")
	fs.BoolVar(&o.logJSON, "log-json", false, "JSON logs (true) or text (false)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	// FOLIO_SITE_URL and FOLIO_BASE_PATH are shared with the server
	cfg.FillFromEnv(fs, cfg.EnvPrefix, nil)

	if o.siteURL == "" {
		return o, errors.New("-site-url is required")
	}
	if o.outDir == "" {
		return o, errors.New("-out must not be empty")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	lvl, err := log.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	L, err := log.New(log.Options{
		App:     v.AppName,
		Version: v.Version,
		Level:   lvl,
		JSON:    o.logJSON,
		Writer:  stderr,
	})
	if err != nil {
		return err
	}
	L = L.With("component", "generate")

	siteOpts := site.Options{BaseURL: o.siteURL, BasePath: o.basePath}
	var snap *content.Snapshot
	if o.contentDir == "" {
		snap, err = content.LoadSeed(siteOpts)
	} else {
		snap, err = content.LoadDir(o.contentDir, siteOpts)
	}
	if err != nil {
		L.Error(ctx, err, "content bundle rejected", "content_dir", o.contentDir)
		return err
	}
	if err := content.ValidateSnapshot(snap, content.DefaultValidationOptions()); err != nil {
		L.Error(ctx, err, "content bundle failed validation", "content_dir", o.contentDir)
		return err
	}

	n, err := snap.Site.Export(o.outDir)
	if err != nil {
		L.Error(ctx, err, "export failed", "out", o.outDir)
		return err
	}
	L.Info(ctx, "site generated",
		"out", o.outDir,
		"files", n,
		"projects", snap.Site.Projects.Len(),
		"content_version", snap.Meta.Version,
	)
	return nil
}
