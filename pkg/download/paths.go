package download

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/cperrin88/assetmirror/pkg/collect"
	pkgerrors "github.com/cperrin88/assetmirror/pkg/errors"
	"github.com/cperrin88/assetmirror/pkg/fsutil"
)

// parseOrigin validates origin as an absolute http(s) URL and returns it without a
// trailing slash, along with its host.
func parseOrigin(origin string) (string, string, error) {
	if origin == "" {
		return "", "", fmt.Errorf("%w: origin is required", pkgerrors.ErrInvalidOrigin)
	}
	u, err := url.Parse(origin)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %w", pkgerrors.ErrInvalidOrigin, origin, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", fmt.Errorf("%w: %s: must be an absolute http(s) URL", pkgerrors.ErrInvalidOrigin, origin)
	}
	return strings.TrimRight(origin, "/"), u.Host, nil
}

// RequestURL returns the URL ref is fetched from. Absolute references are used as-is;
// root-relative ones are appended to origin.
func RequestURL(origin, ref string) string {
	if collect.IsAbsoluteURL(ref) {
		return ref
	}
	return strings.TrimRight(origin, "/") + ref
}

// Destination maps ref to a slash-separated path relative to the destination root.
//
// Absolute URLs keep their URL path, so https://cdn.example/static/logo.svg becomes
// static/logo.svg. Root-relative references lose the first matching entry of trim and
// their leading slash. Query strings and fragments never reach the file system.
func Destination(ref string, trim []string) (string, error) {
	var p string
	if collect.IsAbsoluteURL(ref) {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", pkgerrors.ErrInvalidPath, ref, err)
		}
		p = u.Path
	} else {
		p = stripQuery(ref)
		for _, prefix := range trim {
			if prefix != "" && strings.HasPrefix(p, prefix) {
				p = strings.TrimPrefix(p, prefix)
				break
			}
		}
		if unescaped, err := url.PathUnescape(p); err == nil {
			p = unescaped
		}
	}

	p = strings.TrimLeft(p, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		return "", fmt.Errorf("%w: %s: does not name a file", pkgerrors.ErrInvalidPath, ref)
	}
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s: escapes the destination directory", pkgerrors.ErrInvalidPath, ref)
	}
	return cleaned, nil
}

// localPath joins rel onto dir and refuses anything that lands outside dir.
func localPath(dir, rel string) (string, error) {
	abs := filepath.Join(dir, filepath.FromSlash(rel))
	if !fsutil.IsWithin(dir, abs) || abs == filepath.Clean(dir) {
		return "", fmt.Errorf("%w: %s: escapes the destination directory", pkgerrors.ErrInvalidPath, rel)
	}
	return abs, nil
}

func stripQuery(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}
