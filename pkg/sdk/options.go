package polaudit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	discoveryURL  string
	apiKey        string
	environmentID string
	version       string
	collections   map[string]string
	httpClient    *http.Client
	rateLimit     float64
	timeout       time.Duration

	ignoredTerms     string
	articleNames     string
	articleSummaries string
	displayNames     map[string]string
	documentsDir     string
	baseURL          string

	redisAddrs    []string
	redisPassword string
	maxQueries    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithDiscovery sets the search service endpoint and credentials.
func WithDiscovery(url, apiKey, environmentID string) Option {
	return optionFunc(func(c *clientConfig) {
		c.discoveryURL = url
		c.apiKey = apiKey
		c.environmentID = environmentID
	})
}

// WithAPIVersion overrides the search service API version date.
func WithAPIVersion(v string) Option {
	return optionFunc(func(c *clientConfig) {
		c.version = v
	})
}

// WithCollections maps each subject to its collection id. Required.
func WithCollections(m map[string]string) Option {
	return optionFunc(func(c *clientConfig) {
		c.collections = m
	})
}

// WithHTTPClient replaces the HTTP client used for the search service.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithRateLimit bounds outbound search service requests per second.
// Zero (default) is unlimited.
func WithRateLimit(rps float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.rateLimit = rps
	})
}

// WithTimeout bounds each search service call. Default: 15s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithTermTables sets the three term table files. Required.
func WithTermTables(ignoredTerms, articleNames, articleSummaries string) Option {
	return optionFunc(func(c *clientConfig) {
		c.ignoredTerms = ignoredTerms
		c.articleNames = articleNames
		c.articleSummaries = articleSummaries
	})
}

// WithDocuments sets the document tree and the base URL document links are built on.
// Defaults: "documents" and "http://localhost:3000".
func WithDocuments(dir, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.documentsDir = dir
		c.baseURL = baseURL
	})
}

// WithDisplayNames sets the filename -> display name table.
func WithDisplayNames(m map[string]string) Option {
	return optionFunc(func(c *clientConfig) {
		c.displayNames = m
	})
}

// WithRedisLock serializes feedback writers across processes through Redis.
// Without it writers are serialized within this process only.
func WithRedisLock(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithMaxQueries caps training queries per collection. Default: 10000.
func WithMaxQueries(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxQueries = n
	})
}

// WithLogger enables structured logging for client calls.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (call counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
