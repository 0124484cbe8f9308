package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"

	"github.com/cperrin88/assetmirror/internal/logger"
	"github.com/cperrin88/assetmirror/pkg/collect"
	pkgerrors "github.com/cperrin88/assetmirror/pkg/errors"
	"github.com/cperrin88/assetmirror/pkg/fsutil"
)

// Downloader fetches asset references with a bounded pool of workers. The zero value is
// ready to use; it keeps no state between runs.
type Downloader struct {
	// Transport overrides the HTTP transport. Nil uses a pooled default.
	Transport http.RoundTripper
}

// New creates a Downloader using the default transport.
func New() *Downloader {
	return &Downloader{}
}

var _ Fetcher = (*Downloader)(nil)

// Download fetches every reference in set into opts.Dir. Each reference is attempted
// once plus opts.Retries retries; a failure is recorded in its outcome and never stops
// the other downloads. At most opts.Concurrency downloads are in flight at any time.
func (d *Downloader) Download(ctx context.Context, set *collect.AssetSet, opts Options) (Report, error) {
	refs := set.Items()
	if len(refs) == 0 {
		return NewReport(nil, 0), nil
	}

	opts, origin, err := normalizeOptions(opts)
	if err != nil {
		return Report{}, err
	}
	if err := fsutil.EnsureDir(opts.Dir); err != nil {
		return Report{}, fmt.Errorf("%w: %w", pkgerrors.ErrInvalidPath, err)
	}

	start := time.Now()
	client := newClient(d.Transport, opts)
	tracker := newProgressTracker(len(refs), opts.ProgressStep, opts.OnProgress)
	outcomes := make([]Outcome, len(refs))

	logger.Debug("Starting downloads", logger.Fields{
		"assets":      len(refs),
		"concurrency": opts.Concurrency,
		"dir":         opts.Dir,
		"auth":        opts.Auth.String(),
	})

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			outcomes[i] = notStarted(origin, ref, err)
			tracker.done(outcomes[i])
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = notStarted(origin, ref, err)
			} else {
				outcomes[i] = fetchOne(ctx, client, origin, ref, opts, tracker)
			}
			tracker.done(outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	report := NewReport(outcomes, time.Since(start))
	logger.Debug("Downloads finished", logger.Fields{
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"bytes":     report.TotalBytes,
		"duration":  report.Duration.String(),
	})

	if opts.FailureMode == FailureStrict {
		return report, report.PartialError()
	}
	return report, nil
}

func normalizeOptions(opts Options) (Options, string, error) {
	origin, host, err := parseOrigin(opts.Origin)
	if err != nil {
		return opts, "", err
	}
	opts.Auth = opts.Auth.Scoped(host)
	if opts.Dir == "" {
		return opts, "", fmt.Errorf("%w: destination directory is required", pkgerrors.ErrInvalidPath)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = max(2, runtime.NumCPU()/2)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = DefaultRetryWaitMin
	}
	if opts.RetryWaitMax < opts.RetryWaitMin {
		opts.RetryWaitMax = max(opts.RetryWaitMin, DefaultRetryWaitMax)
	}
	if opts.FailureMode == "" {
		opts.FailureMode = FailureLenient
	}
	if opts.ProgressStep <= 0 || opts.ProgressStep > 100 {
		opts.ProgressStep = DefaultProgressStep
	}
	if opts.TrimPrefixes == nil {
		opts.TrimPrefixes = DefaultTrimPrefixes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return opts, origin, nil
}

func notStarted(origin, ref string, err error) Outcome {
	return Outcome{Reference: ref, URL: RequestURL(origin, ref), Err: err}
}

func fetchOne(ctx context.Context, client *retryablehttp.Client, origin, ref string, opts Options, tracker *progressTracker) Outcome {
	out := Outcome{Reference: ref, URL: RequestURL(origin, ref)}
	failed := func(err error) Outcome {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		out.Err = err
		logger.Warn("Asset download failed", logger.Fields{"reference": ref, "error": err.Error()})
		return out
	}

	rel, err := Destination(ref, opts.TrimPrefixes)
	if err != nil {
		return failed(err)
	}
	absPath, err := localPath(opts.Dir, rel)
	if err != nil {
		return failed(err)
	}
	out.Path = absPath

	budget := &attemptBudget{retries: opts.Retries}
	reqCtx := withBudget(ctx, budget)
	for restart := 0; ; restart++ {
		n, digest, err := fetchAttempt(reqCtx, client, out.URL, absPath, opts, &tracker.bytes)
		if err == nil {
			out.Success = true
			out.BytesWritten = n
			out.Digest = digest
			logger.Debug("Downloaded asset", logger.Fields{"reference": ref, "path": absPath, "bytes": n})
			return out
		}
		if !errors.Is(err, errStreamInterrupted) || budget.exhausted() || ctx.Err() != nil {
			return failed(err)
		}

		wait := client.Backoff(client.RetryWaitMin, client.RetryWaitMax, restart, nil)
		logger.DebugfWithFields(logger.Fields{"reference": ref, "error": err.Error(), "wait": wait.String()},
			"Restarting interrupted download (%d of %d retries used)", budget.used.Load()-1, opts.Retries)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return failed(ctx.Err())
		case <-timer.C:
		}
	}
}

// fetchAttempt requests url once (plus the client's own retries) and writes the body to
// absPath. Bytes of an attempt that does not end in a finalized file are not counted.
func fetchAttempt(ctx context.Context, client *retryablehttp.Client, url, absPath string, opts Options, total *atomic.Int64) (int64, string, error) {
	resp, err := doRequest(ctx, client, url, opts.UserAgent, opts.Auth)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	tmpPath, n, digest, err := writeBodyToTemp(resp.Body, absPath, total)
	if err != nil {
		return 0, "", err
	}
	if err := finalizeFile(tmpPath, absPath); err != nil {
		total.Add(-n)
		return 0, "", err
	}
	return n, digest, nil
}

// progressTracker counts finished downloads and notifies the sink each time the
// completed share crosses a multiple of step percent.
type progressTracker struct {
	mu        sync.Mutex
	total     int
	step      int
	completed int
	failed    int
	lastStep  int
	bytes     atomic.Int64
	sink      func(Progress)
}

func newProgressTracker(total, step int, sink func(Progress)) *progressTracker {
	if sink == nil {
		sink = logProgress
	}
	return &progressTracker{total: total, step: step, sink: sink}
}

func (p *progressTracker) done(o Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed++
	if !o.Success {
		p.failed++
	}
	percent := p.completed * 100 / p.total
	reached := percent / p.step
	if reached <= p.lastStep {
		return
	}
	p.lastStep = reached
	p.sink(Progress{
		Completed: p.completed,
		Total:     p.total,
		Failed:    p.failed,
		Bytes:     p.bytes.Load(),
		Percent:   percent,
	})
}

func logProgress(p Progress) {
	logger.Info("Download progress", logger.Fields{
		"completed": p.Completed,
		"total":     p.Total,
		"failed":    p.Failed,
		"bytes":     p.Bytes,
		"percent":   p.Percent,
	})
}
