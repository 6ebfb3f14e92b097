package constants

import "time"

const (
	// DefaultSocketTimeout bounds TCP connect and banner reads.
	DefaultSocketTimeout = 5 * time.Second
	// DefaultHTTPTimeout bounds a full website check exchange.
	DefaultHTTPTimeout = 10 * time.Second
	// DefaultRequestTimeout bounds reading an incoming API request.
	DefaultRequestTimeout = 10 * time.Second
)

const (
	// BannerReadLimitBytes caps a single banner read.
	BannerReadLimitBytes = 1024
	// MaxRequestBodyBytes caps incoming JSON payloads.
	MaxRequestBodyBytes = 1 << 20
	// WebsiteBodyDrainBytes is how much of a probed response body we drain before closing.
	WebsiteBodyDrainBytes = 4096
)

const (
	// BrowserUserAgent is sent by website checks.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	// BannerUserAgent is sent in the banner grab request line.
	BannerUserAgent = "Mozilla/5.0"
)

const (
	MinPort = 1
	MaxPort = 65535

	DefaultRequestsPerMinute = 60
	DefaultListenHost        = "0.0.0.0"
	DefaultListenPort        = 5000
	DefaultMaxConnections    = 256
)

// RateWindow is the rolling budget window per client identity.
const RateWindow = time.Minute
