// Package source resolves document references to local files.
//
// Supported references:
//   - file://path or plain filesystem paths (used in place)
//   - http(s):// URLs (downloaded to a temp file)
//   - s3://bucket/key (downloaded to a temp file via AWS SDK v2)
package source

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "os"
    "path"
    "strings"
    "sync"
    "time"

    "github.com/aws/aws-sdk-go-v2/aws"
    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/service/s3"
    "github.com/rs/zerolog/log"
)

// ObjectGetter is the part of the S3 client the resolver uses.
type ObjectGetter interface {
    GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Options configures a Resolver.
type Options struct {
    // DownloadDir holds downloaded documents; empty means os.TempDir().
    DownloadDir string
    HTTPTimeout time.Duration
    // S3 overrides the client built from the default AWS config chain.
    S3 ObjectGetter
}

// Resolver turns references into local paths.
type Resolver struct {
    dir  string
    http *http.Client

    s3Once sync.Once
    s3     ObjectGetter
    s3Err  error
}

// New returns a resolver.
func New(opts Options) *Resolver {
    if opts.HTTPTimeout <= 0 {
        opts.HTTPTimeout = 60 * time.Second
    }
    r := &Resolver{
        dir:  opts.DownloadDir,
        http: &http.Client{Timeout: opts.HTTPTimeout},
        s3:   opts.S3,
    }
    if r.s3 != nil {
        r.s3Once.Do(func() {})
    }
    return r
}

func noop() {}

// Resolve returns a local path for ref and a cleanup that removes any
// temporary download.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, func(), error) {
    switch {
    case strings.HasPrefix(ref, "s3://"):
        u, err := stripFragment(ref)
        if err != nil {
            return "", nil, err
        }
        return r.download(ctx, u, r.fetchS3)
    case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
        u, err := stripFragment(ref)
        if err != nil {
            return "", nil, err
        }
        return r.download(ctx, u, r.fetchHTTP)
    case strings.HasPrefix(ref, "file://"):
        return strings.TrimPrefix(ref, "file://"), noop, nil
    default:
        return ref, noop, nil
    }
}

type fetchFunc func(ctx context.Context, ref string) (io.ReadCloser, error)

func (r *Resolver) download(ctx context.Context, ref string, fetch fetchFunc) (string, func(), error) {
    body, err := fetch(ctx, ref)
    if err != nil {
        return "", nil, err
    }
    defer body.Close()

    // Keep the extension; format detection falls back to it for ZIP containers.
    f, err := os.CreateTemp(r.dir, "pageviewer-*"+path.Ext(refPath(ref)))
    if err != nil {
        return "", nil, fmt.Errorf("create temp file: %w", err)
    }
    name := f.Name()
    cleanup := func() {
        if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
            log.Warn().Err(err).Str("file", name).Msg("removing downloaded document")
        }
    }

    n, err := io.Copy(f, body)
    if cerr := f.Close(); err == nil {
        err = cerr
    }
    if err != nil {
        cleanup()
        return "", nil, fmt.Errorf("download %s: %w", ref, err)
    }
    log.Info().Str("ref", ref).Str("file", name).Int64("bytes", n).Msg("downloaded document")
    return name, cleanup, nil
}

func (r *Resolver) fetchHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return nil, err
    }
    resp, err := r.http.Do(req)
    if err != nil {
        return nil, err
    }
    if resp.StatusCode != http.StatusOK {
        resp.Body.Close()
        return nil, fmt.Errorf("http %d", resp.StatusCode)
    }
    return resp.Body, nil
}

func (r *Resolver) fetchS3(ctx context.Context, ref string) (io.ReadCloser, error) {
    bucket, key, err := splitS3(ref)
    if err != nil {
        return nil, err
    }
    r.s3Once.Do(func() {
        cfg, err := awscfg.LoadDefaultConfig(ctx)
        if err != nil {
            r.s3Err = fmt.Errorf("failed to load AWS config: %w", err)
            return
        }
        r.s3 = s3.NewFromConfig(cfg)
    })
    if r.s3Err != nil {
        return nil, r.s3Err
    }
    out, err := r.s3.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
    if err != nil {
        return nil, fmt.Errorf("failed to download from S3: %w", err)
    }
    return out.Body, nil
}

// splitS3 parses s3://bucket/key.
func splitS3(ref string) (bucket, key string, err error) {
    p := strings.TrimPrefix(ref, "s3://")
    slash := strings.Index(p, "/")
    if slash <= 0 || slash == len(p)-1 {
        return "", "", fmt.Errorf("invalid s3 url: %s", ref)
    }
    return p[:slash], p[slash+1:], nil
}

// stripFragment drops an optional #page fragment from a URL reference.
// The rest of ref is returned as written so S3 keys are not re-escaped.
func stripFragment(ref string) (string, error) {
    u, err := url.Parse(ref)
    if err != nil {
        return "", fmt.Errorf("invalid url %s: %w", ref, err)
    }
    if u.Fragment == "" && !strings.HasSuffix(ref, "#") {
        return ref, nil
    }
    return ref[:strings.Index(ref, "#")], nil
}

func refPath(ref string) string {
    if i := strings.Index(ref, "?"); i >= 0 {
        ref = ref[:i]
    }
    return ref
}
