package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const userAgent = "goshaderquad (+https://github.com/richinsley/goshaderquad)"

type headerTransport struct {
	Transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/plain, */*")
	return t.Transport.RoundTrip(req)
}

// DefaultClient sends the fetcher's headers and honors proxy settings from the
// environment. It has no timeout: a request that never completes blocks its fetch.
func DefaultClient() *http.Client {
	return &http.Client{
		Transport: &headerTransport{Transport: &http.Transport{Proxy: http.ProxyFromEnvironment}},
	}
}

// Fetcher retrieves text resources over HTTP(S) or from the local filesystem.
// Each Fetch is a single attempt. Concurrent fetches of the same location share one
// retrieval; nothing is kept once it completes. Cancelling one caller's context releases
// that caller only: the shared retrieval keeps running for the others.
type Fetcher struct {
	client  *http.Client
	baseURL *url.URL
	baseDir string
	logger  *zap.Logger

	sf singleflight.Group
}

// NewFetcher creates a fetcher. base is either an http(s) URL that relative locations
// resolve against, or a directory that relative file paths are read from ("" means the
// working directory). A nil client uses DefaultClient and a nil logger discards output.
func NewFetcher(client *http.Client, base string, logger *zap.Logger) (*Fetcher, error) {
	if client == nil {
		client = DefaultClient()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{client: client, logger: logger}

	if IsRemote(base) {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
		}
		f.baseURL = u
	} else {
		f.baseDir = base
	}
	return f, nil
}

// Fetch retrieves and decodes one resource. Failures are *FetchError values of kind
// Transport or Decode.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (string, error) {
	target, remote, err := f.resolve(req.Location)
	if err != nil {
		return "", &FetchError{Kind: Transport, Name: req.Name, Location: req.Location, Err: err}
	}

	log := f.logger.With(zap.String("resource", req.Name), zap.String("location", target))
	log.Debug("resource fetch start")

	// The shared retrieval outlives any one caller; each caller stops waiting on its
	// own ctx.
	detached := context.WithoutCancel(ctx)
	ch := f.sf.DoChan(target, func() (any, error) {
		if remote {
			return f.fetchHTTP(detached, target)
		}
		return f.readFile(target)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		err := &FetchError{Kind: Transport, Name: req.Name, Location: target, Err: ctx.Err()}
		log.Debug("resource fetch abandoned", zap.Error(err))
		return "", err
	case res = <-ch:
	}

	if res.Err != nil {
		var fe *FetchError
		if !errors.As(res.Err, &fe) {
			fe = transportError(target, 0, res.Err)
		}
		named := *fe
		named.Name = req.Name
		log.Debug("resource fetch failed", zap.Error(&named))
		return "", &named
	}

	text := res.Val.(string)
	log.Debug("resource fetched", zap.Int("bytes", len(text)), zap.Bool("shared", res.Shared))
	return text, nil
}

// resolve maps a location to an absolute URL or a file path.
func (f *Fetcher) resolve(location string) (string, bool, error) {
	if location == "" {
		return "", false, fmt.Errorf("empty location")
	}
	if IsRemote(location) {
		return location, true, nil
	}
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return "", false, fmt.Errorf("invalid file URL %q: %w", location, err)
		}
		return filepath.FromSlash(u.Path), false, nil
	}
	if f.baseURL != nil {
		ref, err := url.Parse(location)
		if err != nil {
			return "", false, fmt.Errorf("invalid location %q: %w", location, err)
		}
		return f.baseURL.ResolveReference(ref).String(), true, nil
	}
	path := filepath.FromSlash(location)
	if !filepath.IsAbs(path) && f.baseDir != "" {
		path = filepath.Join(f.baseDir, path)
	}
	return path, false, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", transportError(target, 0, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", transportError(target, 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", transportError(target, resp.StatusCode, fmt.Errorf("bad response status: %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", decodeError(target, fmt.Errorf("failed to read response body: %w", err))
	}

	text, err := decodeText(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", decodeError(target, err)
	}
	return text, nil
}

func (f *Fetcher) readFile(path string) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", transportError(path, 0, err)
	}
	text, err := decodeText(body, "")
	if err != nil {
		return "", decodeError(path, err)
	}
	return text, nil
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
