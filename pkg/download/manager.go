package download

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/zeebo/blake3"

	"github.com/cperrin88/assetmirror/internal/logger"
	"github.com/cperrin88/assetmirror/pkg/auth"
	pkgerrors "github.com/cperrin88/assetmirror/pkg/errors"
	"github.com/cperrin88/assetmirror/pkg/fsutil"
)

// newClient builds the retrying HTTP client for one run. The final attempt's response
// is passed through untouched so callers can see the status code. Requests carrying an
// attemptBudget stop retrying once the budget is spent.
func newClient(transport http.RoundTripper, opts Options) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	if transport != nil {
		client.HTTPClient.Transport = transport
	}
	client.HTTPClient.Timeout = opts.Timeout
	client.RetryMax = opts.Retries
	client.RetryWaitMin = opts.RetryWaitMin
	client.RetryWaitMax = opts.RetryWaitMax
	client.CheckRetry = checkRetry
	client.Backoff = retryablehttp.DefaultBackoff
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.RequestLogHook = countAttempt
	client.Logger = logger.GetLogger()
	return client
}

// attemptBudget caps the HTTP attempts made for one asset, whether they come from
// request retries or from restarting an interrupted body stream.
type attemptBudget struct {
	retries int
	used    atomic.Int64
}

type budgetKey struct{}

func withBudget(ctx context.Context, b *attemptBudget) context.Context {
	return context.WithValue(ctx, budgetKey{}, b)
}

func budgetFrom(ctx context.Context) *attemptBudget {
	b, _ := ctx.Value(budgetKey{}).(*attemptBudget)
	return b
}

// exhausted reports whether retries+1 attempts have been made.
func (b *attemptBudget) exhausted() bool {
	return b != nil && b.used.Load() > int64(b.retries)
}

func countAttempt(_ retryablehttp.Logger, req *http.Request, _ int) {
	if b := budgetFrom(req.Context()); b != nil {
		b.used.Add(1)
	}
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	retry, checkErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	if retry && budgetFrom(ctx).exhausted() {
		return false, nil
	}
	return retry, checkErr
}

// retryableStatus mirrors the retry policy: throttling and server errors, except 501.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		(code >= http.StatusInternalServerError && code != http.StatusNotImplemented)
}

// doRequest issues a GET and returns the response for any 2xx status. A 204 yields an
// empty body and therefore an empty file.
func doRequest(ctx context.Context, client *retryablehttp.Client, rawURL, userAgent string, authenticator auth.Authenticator) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", pkgerrors.ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if authenticator != nil {
		if err := authenticator.Apply(req.Request); err != nil {
			return nil, fmt.Errorf("%w: failed to apply credentials: %w", pkgerrors.ErrDownloadFailed, err)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrTransientFetch, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_ = resp.Body.Close()
		if retryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: unexpected status code: %d", pkgerrors.ErrTransientFetch, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: unexpected status code: %d", pkgerrors.ErrDownloadFailed, resp.StatusCode)
	}
	return resp, nil
}

// errStreamInterrupted marks a response body that failed mid-read. A fresh request can
// succeed where the stream broke, so these are retried by restarting the download.
var errStreamInterrupted = fmt.Errorf("%w: response body interrupted", pkgerrors.ErrTransientFetch)

// countingWriter adds every write to a shared running total.
type countingWriter struct {
	n     int64
	total *atomic.Int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	w.total.Add(int64(len(p)))
	return len(p), nil
}

// sourceReader remembers a read failure so it can be told apart from a local write failure.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}

// writeBodyToTemp streams the body into a temp file next to absPath and returns the temp
// path, the number of bytes written and the hex BLAKE3 digest. Bytes of a failed write
// are taken back out of total.
func writeBodyToTemp(body io.Reader, absPath string, total *atomic.Int64) (string, int64, string, error) {
	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return "", 0, "", pkgerrors.Wrap(err, "could not create destination dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".dl-*.tmp")
	if err != nil {
		return "", 0, "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()
	hasher := blake3.New()
	counter := &countingWriter{total: total}
	fail := func(err error, msg string) (string, int64, string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		total.Add(-counter.n)
		return "", 0, "", pkgerrors.Wrap(err, msg)
	}

	src := &sourceReader{r: body}
	if _, err := io.Copy(io.MultiWriter(tmp, hasher, counter), src); err != nil {
		if src.err != nil {
			return fail(fmt.Errorf("%w: %w", errStreamInterrupted, src.err), "could not read response")
		}
		return fail(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		return fail(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		total.Add(-counter.n)
		return "", 0, "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, counter.n, hex.EncodeToString(hasher.Sum(nil)), nil
}

func finalizeFile(tmpPath, absPath string) error {
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		_ = os.Remove(tmpPath)
		return pkgerrors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return pkgerrors.Wrap(err, "could not set permissions")
	}
	return nil
}
