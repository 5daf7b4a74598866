package helpers

import (
	"net/url"
	"strings"
	"sync"

	"holiday-pipeline/src/logger"
)

// DefaultUserAgent identifies the collector to holiday providers.
const DefaultUserAgent = "holiday-pipeline/1.0 (+collector)"

// -----------------------------------------------------------------------------

// ProxyManager rotates through the proxies listed in configuration.
type ProxyManager struct {
	proxies   []string
	userAgent string
	index     int
	mu        sync.Mutex
	logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewProxyManager(proxies []string, userAgent string) *ProxyManager {
	// Format before validating so host:port entries get their scheme
	var validProxies []string
	for _, p := range proxies {
		if p = FormatProxy(strings.TrimSpace(p)); ValidateProxy(p) {
			validProxies = append(validProxies, p)
		}
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}

	return &ProxyManager{
		proxies:   validProxies,
		userAgent: userAgent,
		logger:    logger.NewLogger(nil, "ProxyManager"),
	}
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) GetCurrentProxy() (string, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) == 0 {
		return "", nil
	}
	return pm.proxies[pm.index], nil
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) RotateProxy() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) <= 1 {
		return
	}

	pm.index = (pm.index + 1) % len(pm.proxies)
	pm.logger.Info("Rotating proxy to: %s", pm.proxies[pm.index])
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) GetUserAgent() string {
	return pm.userAgent
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) HasProxies() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.proxies) > 0
}

// -----------------------------------------------------------------------------

// ValidateProxy checks a formatted proxy URL: http, https or socks5 with a host.
func ValidateProxy(proxyStr string) bool {
	u, err := url.Parse(proxyStr)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https" || u.Scheme == "socks5"
}

// -----------------------------------------------------------------------------

// FormatProxy ensures the proxy has a scheme.
func FormatProxy(proxyStr string) string {
	if proxyStr == "" {
		return ""
	}
	if !strings.Contains(proxyStr, "://") {
		return "http://" + proxyStr
	}
	return proxyStr
}
