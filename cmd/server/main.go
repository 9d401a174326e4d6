package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/folio-labs/folio-web/internal/cfg"
	"github.com/folio-labs/folio-web/internal/content"
	"github.com/folio-labs/folio-web/internal/cryptoutil"
	"github.com/folio-labs/folio-web/internal/health"
	"github.com/folio-labs/folio-web/internal/httpmw"
	"github.com/folio-labs/folio-web/internal/httpserver"
	"github.com/folio-labs/folio-web/internal/log"
	"github.com/folio-labs/folio-web/internal/metrics"
	"github.com/folio-labs/folio-web/internal/opshttp"
	"github.com/folio-labs/folio-web/internal/otelx"
	"github.com/folio-labs/folio-web/internal/prof"
	"github.com/folio-labs/folio-web/internal/projecthttp"
	"github.com/folio-labs/folio-web/internal/ratelimit"
	"github.com/folio-labs/folio-web/internal/site"
	"github.com/folio-labs/folio-web/internal/sitehandler"
	"github.com/folio-labs/folio-web/internal/sitehttp"
	v "github.com/folio-labs/folio-web/internal/version"
	"github.com/folio-labs/folio-web/internal/webassets"
)

// load balancer health checks need a few failed /-/ready polls to drain us
const drainPeriod = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vi := v.Get()

	var conf cfg.App
	var showVersion bool

	cfg.Register(flag.CommandLine, &conf)
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("%s %s (commit=%s, commit_date=%s, build_date=%s, go=%s, dirty=%v)\n",
			vi.App, vi.Version, vi.Commit, vi.CommitDate, vi.BuildDate, vi.GoVersion,
			vi.Dirty != nil && *vi.Dirty,
		)
		os.Exit(0)
	}

	// .env first so FillFromEnv sees its values; the real environment still wins
	if err := cfg.LoadEnvFile(conf.EnvFile); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	cfg.FillFromEnv(flag.CommandLine, cfg.EnvPrefix, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})
	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	// Logging
	lvl, _ := log.ParseLevel(conf.LogLevel)
	stackLvl, _ := log.ParseLevel(conf.StacktraceLevel)
	lg, err := log.New(log.Options{
		App:               v.AppName,
		Version:           vi.Version,
		Commit:            vi.Commit,
		Level:             lvl,
		StacktraceLevel:   stackLvl,
		JSON:              conf.LogJSON,
		IncludeErrorLinks: conf.IncludeErrorLinks,
		MaxErrorLinks:     conf.MaxErrorLinks,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()
	L := lg.With("component", "server")
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"build_date", vi.BuildDate,
		"go_version", vi.GoVersion,
		"http_port", conf.HTTPPort,
		"admin_port", conf.AdminPort,
		"site_url", conf.SiteURL,
		"base_path", conf.BasePath,
		"content_dir", conf.ContentDir,
		"enable_pprof", conf.EnablePprof,
		"enable_pyroscope", conf.EnablePyroscope,
		"enable_tracing", conf.EnableTracing,
		"enable_content_updates", conf.EnableContentUpdates,
		"content_s3_bucket", conf.ContentS3Bucket,
		"content_signed", conf.ContentSigningKeyARN != "",
		"trusted_proxy_hops", conf.TrustedProxyHops,
	)

	// Profiling
	stopProf, profErr := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		AppName:       v.AppName,
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		AuthToken:     conf.PyroAuthToken,
		Tags: map[string]string{
			"component": "server",
			"version":   vi.Version,
			"commit":    vi.Commit,
		},
	})
	if profErr != nil {
		L.Error(ctx, profErr, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	defer stopProf()

	// Tracing. Insecure: the collector is a localhost sidecar.
	shutdownOTEL, err := otelx.Init(ctx, otelx.Options{
		Enabled:   conf.EnableTracing,
		Endpoint:  conf.OTLPEndpoint,
		Insecure:  true,
		Sample:    conf.TraceSample,
		Service:   v.AppName,
		Component: "server",
		Version:   vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	m := metrics.New()
	m.SetBuildInfo("server", vi)
	m.SetProfilingActive(conf.EnablePyroscope && profErr == nil)

	siteOpts := site.Options{BaseURL: conf.SiteURL, BasePath: conf.BasePath}
	contentMgr := content.NewManager()

	var loader *content.Loader
	if conf.EnableContentUpdates {
		loader, err = newS3Loader(ctx, L, conf, siteOpts)
		if err != nil {
			L.Error(ctx, err, "failed to create content loader, content updates disabled")
		}
	}

	if err := loadInitialContent(ctx, L, conf, siteOpts, loader, contentMgr); err != nil {
		// nothing to serve but the maintenance page; stay up so ops can see why
		L.Error(ctx, err, "no content loaded")
	}
	if snap, ok := contentMgr.Get(); ok {
		m.SetContent(contentState(snap))
	}

	if loader != nil {
		watcher := content.NewWatcher(&content.WatcherOptions{
			Logger:       L.With("component", "content-watcher"),
			Loader:       loader,
			Manager:      contentMgr,
			PollInterval: conf.ContentPollInterval,
			Metrics:      m,
			OnSwap: func(snap *content.Snapshot) {
				m.SetContent(contentState(snap))
			},
		})
		go func() { _ = watcher.Run(ctx) }()
	}

	static, err := sitehandler.New(sitehandler.Options{
		Logger:     L,
		Content:    contentMgr,
		FallbackFS: webassets.FallbackFS(),
	})
	if err != nil {
		L.Error(ctx, err, "failed to create site handler")
		os.Exit(1)
	}
	projectAPI := projecthttp.NewAPI(contentMgr, m, L)
	siteRoutes := sitehttp.New(static, contentMgr, m)

	var gate health.ShutdownGate
	readiness := health.All(
		gate.Probe(),
		health.Named("content", health.Readiness(contentMgr)),
	)

	limiter := ratelimit.New(ctx,
		ratelimit.WithRate(conf.RateLimitRPS, conf.RateLimitBurst),
		ratelimit.WithExemptPrefixes("/static/", "/-/"),
		ratelimit.WithOnDenied(func(string) { m.IncRateLimitDenied() }),
		// once per offender until its entry is evicted
		ratelimit.WithOnFirstDenied(func(ip string) {
			m.IncRateLimitOffender()
			L.Warn(ctx, "rate limit triggered", "ip", ip)
		}),
	)

	siteHTTPStop, err := httpserver.Start(ctx, httpserver.Options{
		Logger:       L,
		Port:         conf.HTTPPort,
		UseRecoverMW: true,
		OnPanic:      m.IncHTTPPanic,
		MetricsMW:    m.Middleware,
		RateLimitMW:  limiter.Middleware,
		ClientIPOpts: httpmw.ClientIPOptions{TrustedHops: conf.TrustedProxyHops},
		Health:       health.Fixed(true, ""),
		Readiness:    readiness,
		ContentInfo:  contentMgr,
		APIRoutes:    projectAPI.RegisterRoutes,
		SiteRoutes:   siteRoutes.RegisterRoutes,
	})
	if err != nil {
		L.Error(ctx, err, "failed to start site http listener")
		os.Exit(1)
	}
	defer func() { _ = siteHTTPStop(context.Background()) }()

	// The ops listener rejects public peers itself, in case the network
	// rules in front of it are ever misconfigured.
	opsHTTPStop, err := opshttp.Start(ctx, L, &opshttp.Options{
		Port:        conf.AdminPort,
		Metrics:     m.Handler(),
		EnablePprof: conf.EnablePprof,
		Health:      health.Fixed(true, ""),
		Readiness:   readiness,
		Content:     http.HandlerFunc(projectAPI.HandleContent),
	})
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		os.Exit(1)
	}
	defer func() { _ = opsHTTPStop(context.Background()) }()

	if err := notifySystemd(); err != nil {
		L.Debug(ctx, "systemd notify skipped", "reason", err.Error())
	}

	<-ctx.Done()
	stop()

	bg := context.Background()
	L.Info(bg, "shutdown signal received")

	// fail readiness so the load balancer stops sending new requests
	gate.Set("draining")
	L.Info(bg, "draining", "period", drainPeriod.String())

	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(drainPeriod):
		L.Info(bg, "drain period complete")
	case <-forceCh:
		L.Warn(bg, "second signal received, skipping drain")
	}
	signal.Stop(forceCh)

	shutdownCtx, cancel := context.WithTimeout(bg, 10*time.Second)
	defer cancel()

	if err := siteHTTPStop(shutdownCtx); err != nil {
		L.Error(bg, err, "site http server shutdown")
	}
	if err := opsHTTPStop(shutdownCtx); err != nil {
		L.Error(bg, err, "ops http server shutdown")
	}
	if err := shutdownOTEL(shutdownCtx); err != nil {
		L.Error(bg, err, "otel shutdown")
	}
	stopProf()

	L.Info(bg, "shutdown complete")
}

func newS3Loader(ctx context.Context, L log.Logger, conf cfg.App, siteOpts site.Options) (*content.Loader, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	var verifier content.SignatureVerifier
	if conf.ContentSigningKeyARN != "" {
		verifier = cryptoutil.NewKMSVerifier(kms.NewFromConfig(awsCfg), conf.ContentSigningKeyARN)
	}

	return content.NewLoader(content.LoaderOptions{
		Logger:   L,
		SSMParam: conf.ContentSSMParam,
		S3Bucket: conf.ContentS3Bucket,
		S3Prefix: conf.ContentS3Prefix,
		S3:       s3.NewFromConfig(awsCfg),
		SSM:      ssm.NewFromConfig(awsCfg),
		Verifier: verifier,
		Site:     siteOpts,
	})
}

// loadInitialContent tries the S3 bundle, then the content directory, then
// the embedded seed. The first snapshot that builds and validates wins.
func loadInitialContent(ctx context.Context, L log.Logger, conf cfg.App, siteOpts site.Options, loader *content.Loader, mgr *content.Manager) error {
	type source struct {
		name string
		load func() (*content.Snapshot, error)
	}
	var sources []source
	if loader != nil {
		sources = append(sources, source{"s3", func() (*content.Snapshot, error) { return loader.Load(ctx) }})
	}
	if conf.ContentDir != "" {
		sources = append(sources, source{"disk", func() (*content.Snapshot, error) { return content.LoadDir(conf.ContentDir, siteOpts) }})
	}
	sources = append(sources, source{"seed", func() (*content.Snapshot, error) { return content.LoadSeed(siteOpts) }})

	var errs []error
	for _, src := range sources {
		snap, err := src.load()
		if err == nil {
			err = content.ValidateSnapshot(snap, content.DefaultValidationOptions())
		}
		if err != nil {
			L.Warn(ctx, "content source unusable", "source", src.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.name, err))
			continue
		}
		mgr.Set(*snap)
		L.Info(ctx, "content loaded",
			"source", src.name,
			"content_version", snap.Meta.Version,
			"content_hash", snap.Meta.Hash,
			"projects", snap.Site.Projects.Len(),
		)
		return nil
	}
	return errors.Join(errs...)
}

func contentState(snap *content.Snapshot) metrics.ContentState {
	repo := snap.Site.Projects
	return metrics.ContentState{
		Source:   string(snap.Meta.Source),
		Version:  snap.Meta.Version,
		Hash:     snap.Meta.Hash,
		LoadedAt: snap.LoadedAt,
		Projects: repo.Len(),
		Featured: len(repo.ListFeatured()),
		Tags:     len(repo.Tags()),
	}
}

func notifySystemd() error {
	// set by systemd for Type=notify units
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return errors.New("NOTIFY_SOCKET not set")
	}
	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		return fmt.Errorf("systemd notify: dial: %w", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("READY=1")); err != nil {
		return fmt.Errorf("systemd notify: write: %w", err)
	}
	return nil
}
