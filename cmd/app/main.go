package main

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "strconv"
    "syscall"
    "time"

    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/pageviewer/internal/config"
    "github.com/local/pageviewer/internal/console"
    "github.com/local/pageviewer/internal/document"
    "github.com/local/pageviewer/internal/filetype"
    "github.com/local/pageviewer/internal/imagerender"
    logpkg "github.com/local/pageviewer/internal/logger"
    "github.com/local/pageviewer/internal/metrics"
    "github.com/local/pageviewer/internal/navigation"
    "github.com/local/pageviewer/internal/pipeline"
    "github.com/local/pageviewer/internal/rendercache"
    "github.com/local/pageviewer/internal/source"
    "github.com/local/pageviewer/internal/viewer"
    web "github.com/local/pageviewer/internal/web"
    "github.com/local/pageviewer/internal/zoom"
)

const usage = `usage:
  app serve [document]                 serve the viewer over HTTP (CONSOLE=1 adds keyboard control)
  app inspect <document>               print page count and format details
  app render <document> <page> [steps] <out>
                                       render one page; steps is the signed number of zoom steps`

func main() {
    cfg := cfgpkg.FromEnv()

    cmd := "serve"
    args := os.Args[1:]
    if len(args) > 0 {
        cmd, args = args[0], args[1:]
    }

    opts := logpkg.Options{
        Level:        cfg.Logging.Level,
        Pretty:       cfg.Logging.Pretty,
        File:         cfg.Logging.File,
        MaxSizeMB:    cfg.Logging.MaxSizeMB,
        MaxBackups:   cfg.Logging.MaxBackups,
        MaxAgeDays:   cfg.Logging.MaxAgeDays,
        Compress:     cfg.Logging.Compress,
        SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey:  cfg.Axiom.APIKey,
        AxiomOrgID:   cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush:   cfg.Axiom.FlushInterval,
    }
    if cmd != "serve" || cfg.Web.Console {
        opts.Console = os.Stderr
    }
    _ = logpkg.Init(opts)
    defer logpkg.Close()

    var err error
    switch cmd {
    case "serve":
        err = serve(cfg, args)
    case "inspect":
        err = inspect(cfg, args)
    case "render":
        err = renderOnce(cfg, args)
    default:
        fmt.Fprintln(os.Stderr, usage)
        os.Exit(2)
    }
    if err != nil {
        log.Error().Err(err).Str("cmd", cmd).Msg("command failed")
        logpkg.Close()
        os.Exit(1)
    }
}

func sessionOptions(cfg cfgpkg.Config) document.Options {
    return document.Options{
        Decoder:          document.NewFitzDecoder(),
        Detector:         filetype.New(),
        Prober:           document.PDFProber{},
        KeepOnFailedOpen: cfg.Session.KeepOnFailedOpen,
    }
}

func encoding(cfg cfgpkg.Config) imagerender.Options {
    return imagerender.Options{
        Format:    imagerender.Format(cfg.Render.Format),
        Quality:   cfg.Render.JPEGQuality,
        ColorMode: imagerender.ColorMode(cfg.Render.ColorMode),
    }
}

func resolver(cfg cfgpkg.Config) *source.Resolver {
    return source.New(source.Options{DownloadDir: cfg.Source.DownloadDir, HTTPTimeout: cfg.Source.HTTPTimeout})
}

func serve(cfg cfgpkg.Config, args []string) error {
    metrics.Init()

    w := web.New(web.Options{Username: cfg.Web.Username, Password: cfg.Web.Password, Encoding: encoding(cfg)})
    v := viewer.New(w, viewer.Options{
        Session:  sessionOptions(cfg),
        Resolver: resolver(cfg),
        Async:    cfg.Render.Async,
    })
    defer v.Close()

    loop := viewer.NewLoop(v)
    w.Attach(loop)

    ctx, stopLoop := context.WithCancel(context.Background())
    defer stopLoop()
    loopDone := make(chan struct{})
    go func() {
        defer close(loopDone)
        _ = loop.Run(ctx)
    }()

    if len(args) > 0 {
        ref := args[0]
        _ = loop.Do(ctx, func(c context.Context, v *viewer.Viewer) {
            if err := v.Open(c, ref); err != nil {
                log.Warn().Err(err).Str("ref", ref).Msg("initial document not opened")
            }
        })
    }

    mux := http.NewServeMux()
    w.RegisterRoutes(mux)
    mux.Handle("/metrics", metrics.Handler())

    srv := &http.Server{Addr: ":" + cfg.Web.Port, Handler: mux}
    go func() {
        log.Info().Msgf("HTTP server listening on :%s", cfg.Web.Port)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

    if cfg.Web.Console {
        done := make(chan struct{})
        go func() {
            defer close(done)
            if err := console.New(os.Stdin, os.Stdout, loop).Run(ctx); err != nil {
                log.Error().Err(err).Msg("console stopped")
            }
        }()
        select {
        case <-stop:
        case <-done:
        }
    } else {
        <-stop
    }

    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
    // The viewer is closed by the deferred Close only once no command is running.
    stopLoop()
    <-loopDone
    log.Info().Msg("shutdown complete")
    return nil
}

type inspectReport struct {
    Ref      string                `json:"ref"`
    Type     *filetype.FileTypeInfo `json:"type,omitempty"`
    Document *document.Info         `json:"document,omitempty"`
    Probe    *document.ProbeResult  `json:"probe,omitempty"`
    Error    string                 `json:"error,omitempty"`
}

func inspect(cfg cfgpkg.Config, args []string) error {
    if len(args) != 1 {
        return errors.New(usage)
    }
    ctx := context.Background()
    report := inspectReport{Ref: args[0]}

    path, cleanup, err := resolver(cfg).Resolve(ctx, args[0])
    if err != nil {
        return fmt.Errorf("resolve %s: %w", args[0], err)
    }
    defer cleanup()

    if ft, err := filetype.New().Detect(path); err == nil {
        report.Type = ft
        if ft.IsPDF {
            if res, err := (document.PDFProber{}).Probe(path); err == nil {
                report.Probe = &res
            }
        }
    }

    s := document.NewSession(sessionOptions(cfg))
    defer s.Close()
    if info, err := s.Open(path); err != nil {
        report.Error = err.Error()
    } else {
        report.Document = &info
    }

    enc := json.NewEncoder(os.Stdout)
    enc.SetIndent("", "  ")
    return enc.Encode(report)
}

func renderOnce(cfg cfgpkg.Config, args []string) error {
    if len(args) != 3 && len(args) != 4 {
        return errors.New(usage)
    }
    ref, out := args[0], args[len(args)-1]
    page, err := strconv.Atoi(args[1])
    if err != nil || page < 1 {
        return fmt.Errorf("invalid page %q", args[1])
    }
    steps := 0
    if len(args) == 4 {
        if steps, err = strconv.Atoi(args[2]); err != nil {
            return fmt.Errorf("invalid zoom steps %q", args[2])
        }
    }

    ctx := context.Background()
    path, cleanup, err := resolver(cfg).Resolve(ctx, ref)
    if err != nil {
        return fmt.Errorf("resolve %s: %w", ref, err)
    }

    session := document.NewSession(sessionOptions(cfg))
    defer session.Close()
    info, err := session.Open(path, document.WithCleanup(cleanup))
    if err != nil {
        return err
    }

    nav, z := navigation.New(), zoom.New()
    nav.Reset(info.PageCount)
    for nav.Current() < page-1 && nav.Next() {
    }
    for ; steps > 0; steps-- {
        z.ZoomIn()
    }
    for ; steps < 0; steps++ {
        z.ZoomOut()
    }

    p := pipeline.New(session, nav, z, rendercache.New(), nil)
    entry, err := p.RenderCurrentPage(ctx)
    if err != nil {
        return err
    }

    data, w, h, err := imagerender.Encode(entry.Image, encoding(cfg))
    if err != nil {
        return err
    }
    if err := os.WriteFile(out, data, 0o644); err != nil {
        return fmt.Errorf("write %s: %w", out, err)
    }
    log.Info().Str("out", out).Int("width", w).Int("height", h).Str("label", entry.Label()).Float64("zoom", z.Factor()).Msg("page written")
    return nil
}
