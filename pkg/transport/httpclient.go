package transport

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/richard-senior/podds-au/internal/logger"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// ClientConfig controls the shared HTTP client
type ClientConfig struct {
	Timeout      time.Duration
	CABundlePath string // extra PEM certificates, ie. a corporate proxy CA
	UserAgent    string
}

var (
	clientMu     sync.Mutex
	httpClient   *http.Client
	clientConfig = ClientConfig{Timeout: 30 * time.Second, UserAgent: defaultUserAgent}
)

// Configure replaces the settings of the shared client, the next request rebuilds it
func Configure(cfg ClientConfig) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	clientConfig = cfg
	httpClient = nil
}

// GetCustomHTTPClient returns the shared HTTP client with custom TLS configuration
func GetCustomHTTPClient() (*http.Client, error) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if httpClient != nil {
		return httpClient, nil
	}
	client, err := NewHTTPClient(clientConfig)
	if err != nil {
		return nil, err
	}
	httpClient = client
	return client, nil
}

// NewHTTPClient builds a client that trusts the system roots plus any configured bundle
func NewHTTPClient(cfg ClientConfig) (*http.Client, error) {
	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		logger.Warn("Failed to get system cert pool", err)
		rootCAs = x509.NewCertPool()
	}

	if cfg.CABundlePath != "" {
		pem, err := os.ReadFile(cfg.CABundlePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA bundle: %w", err)
		}
		if ok := rootCAs.AppendCertsFromPEM(pem); !ok {
			return nil, fmt.Errorf("no certificates found in CA bundle %s", cfg.CABundlePath)
		}
		logger.Info("Added CA bundle to root CAs", cfg.CABundlePath)
	}

	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: rootCAs},
			Proxy:           http.ProxyFromEnvironment,
		},
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}, nil
}

// GetHTML fetches url with browser-like headers and returns the decoded body
func GetHTML(ctx context.Context, url string) ([]byte, error) {
	client, err := GetCustomHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	clientMu.Lock()
	userAgent := clientConfig.UserAgent
	clientMu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")

	logger.Inform("HTTP get called for", url)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch html: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request returned error status %d", resp.StatusCode)
	}
	return ReadBody(resp)
}

// ReadBody reads resp.Body, undoing any gzip, deflate or brotli Content-Encoding
func ReadBody(resp *http.Response) ([]byte, error) {
	var reader io.ReadCloser = resp.Body
	contentEncoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	var err error
	switch contentEncoding {
	case "gzip":
		reader, err = NewGzipReader(resp.Body)
	case "deflate":
		reader, err = NewDeflateReader(resp.Body)
	case "br":
		reader, err = NewBrotliReader(resp.Body)
	case "", "identity":
	default:
		logger.Warn("Unknown content encoding:", contentEncoding)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s reader: %w", contentEncoding, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return data, nil
}

// NewGzipReader creates a gzip reader from the provided io.ReadCloser
func NewGzipReader(r io.ReadCloser) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// NewDeflateReader creates a deflate reader from the provided io.ReadCloser
func NewDeflateReader(r io.ReadCloser) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}

// NewBrotliReader creates a brotli reader from the provided io.ReadCloser
func NewBrotliReader(r io.ReadCloser) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}
