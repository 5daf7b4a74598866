package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"

	"golang.org/x/time/rate"
)

// DefaultRequestTimeout is the fixed provider request timeout.
const DefaultRequestTimeout = 10 * time.Second

// NetworkManager issues single GET requests. Retries belong to helpers.Retry.
type NetworkManager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Client       *http.Client
	Limiter      *rate.Limiter
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MConfig, log *logger.Logger) *NetworkManager {
	nm := &NetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(cfg.Network.Proxies, cfg.Network.UserAgent),
		Logger:       log,
	}
	if cfg.Network.RequestsPerSecond > 0 {
		burst := cfg.Network.Burst
		if burst <= 0 {
			burst = 1
		}
		nm.Limiter = rate.NewLimiter(rate.Limit(cfg.Network.RequestsPerSecond), burst)
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) timeout() time.Duration {
	if nm.Config.Network.RequestTimeout > 0 {
		return time.Duration(nm.Config.Network.RequestTimeout) * time.Second
	}
	return DefaultRequestTimeout
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) createClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			proxyURL, err := url.Parse(proxyStr)
			if err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   nm.timeout(),
	}
}

// -----------------------------------------------------------------------------

// RotateProxy moves to the next configured proxy and rebuilds the client.
func (nm *NetworkManager) RotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}

	nm.ProxyManager.RotateProxy()
	nm.Client = nm.createClient()
}

// -----------------------------------------------------------------------------

// Get performs one GET request. Transport errors and non-2xx statuses are
// returned as *helpers.NetworkError.
func (nm *NetworkManager) Get(ctx context.Context, urlStr string, params map[string]string, headers map[string]string) ([]byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	if nm.Limiter != nil {
		if err := nm.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := nm.Client.Do(req)
	if err != nil {
		nm.Logger.Debug("Request to %s failed: %v", reqUrl.Host, err)
		// A dead proxy looks like a transport error; move on for the next attempt.
		nm.RotateProxy()
		return nil, helpers.NewNetworkError(fmt.Sprintf("GET %s%s", reqUrl.Host, reqUrl.Path), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		nm.Logger.Debug("Bad status %d from %s: %s", resp.StatusCode, reqUrl.Host, string(snippet))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
			nm.RotateProxy()
		}
		return nil, helpers.NewNetworkError(fmt.Sprintf("GET %s%s: bad status %d", reqUrl.Host, reqUrl.Path, resp.StatusCode), resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewNetworkError("read response body", resp.StatusCode, err)
	}
	return body, nil
}
