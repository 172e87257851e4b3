package imagegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/airplanegirl/cards-for-care-api/internal/models"
)

const (
	fetcherName      = "remote-image"
	maxFetchRedirect = 5
)

// ErrUnsafeURL is returned for URLs that are not http(s) or resolve to internal networks
var ErrUnsafeURL = errors.New("unsafe image url")

// ImageFetcher downloads a provider-hosted image
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (data []byte, mimeType string, err error)
}

// Fetcher is the HTTP implementation of ImageFetcher with an SSRF guard and a size cap.
// The guard runs on the initial URL, on every redirect hop and on the address actually dialed.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	checkURL func(rawURL string) error
	checkIP  func(ip net.IP) error
}

// NewFetcher creates a fetcher that refuses bodies larger than maxBytes.
// client is copied; when it has no Transport, a direct one with a guarded dialer is installed.
func NewFetcher(client *http.Client, maxBytes int64) *Fetcher {
	f := &Fetcher{
		maxBytes: maxBytes,
		checkURL: checkSafeURL,
		checkIP:  checkPublicIP,
	}

	guarded := http.Client{}
	if client != nil {
		guarded = *client
	}
	if guarded.Transport == nil {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   f.dialControl,
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = nil
		transport.DialContext = dialer.DialContext
		guarded.Transport = transport
	}
	guarded.CheckRedirect = f.checkRedirect
	f.client = &guarded
	return f
}

// Fetch downloads rawURL and returns its bytes with a detected image MIME type
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := f.checkURL(rawURL); err != nil {
		return nil, "", refusedURL(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", models.NewGenerationError(models.KindProviderUnreachable, fetcherName, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrUnsafeURL) {
			return nil, "", refusedURL(err)
		}
		return nil, "", classifyError(ctx, fetcherName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", models.NewGenerationError(models.KindProviderUnreachable, fetcherName,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", classifyError(ctx, fetcherName, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", &models.GenerationError{
			Kind:     models.KindProviderEmptyResponse,
			Provider: fetcherName,
			Details:  fmt.Sprintf("image larger than %d bytes", f.maxBytes),
		}
	}

	mimeType := DetectImageMIME(data, resp.Header.Get("Content-Type"))
	if mimeType == "" {
		return nil, "", &models.GenerationError{
			Kind:     models.KindProviderEmptyResponse,
			Provider: fetcherName,
			Details:  "remote content is not an image",
		}
	}
	return data, mimeType, nil
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxFetchRedirect {
		return fmt.Errorf("stopped after %d redirects", maxFetchRedirect)
	}
	return f.checkURL(req.URL.String())
}

// dialControl checks the address actually being dialed, after DNS resolution
func (f *Fetcher) dialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: unresolved address %s", ErrUnsafeURL, host)
	}
	return f.checkIP(ip)
}

func refusedURL(err error) *models.GenerationError {
	return &models.GenerationError{
		Kind:     models.KindProviderEmptyResponse,
		Provider: fetcherName,
		Details:  "refused image url",
		Err:      err,
	}
}

// DetectImageMIME sniffs the content type of data, falling back to declared.
// It returns "" when neither names an image type.
func DetectImageMIME(data []byte, declared string) string {
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if mediaType, _, _ := strings.Cut(declared, ";"); strings.HasPrefix(mediaType, "image/") {
		return strings.TrimSpace(mediaType)
	}
	return ""
}

// checkSafeURL allows only http(s) URLs whose every resolved address is public
func checkSafeURL(rawURL string) error {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrUnsafeURL, parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolved, err := net.LookupIP(host)
		if err != nil {
			return fmt.Errorf("%w: resolve %s: %v", ErrUnsafeURL, host, err)
		}
		ips = resolved
	}

	if len(ips) == 0 {
		return fmt.Errorf("%w: no addresses for %s", ErrUnsafeURL, host)
	}

	for _, ip := range ips {
		if err := checkPublicIP(ip); err != nil {
			return err
		}
	}
	return nil
}

func checkPublicIP(ip net.IP) error {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return fmt.Errorf("%w: restricted address %s", ErrUnsafeURL, ip)
	}
	return nil
}
