package checker

// Port probe states.
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
	StatusError  = "Error"
)

// Website check messages.
const (
	MessageOnline          = "Online"
	MessageTimeout         = "Timeout"
	MessageConnectionError = "Connection Error"
	MessageRequestError    = "Request Error"
	MessageUnexpectedError = "Unexpected Error"
)

// Fixed error texts reported inside results.
const (
	ErrTextRequestTimedOut   = "Request timed out"
	ErrTextUnableToConnect   = "Unable to connect to the server"
	ErrTextConnectionTimeout = "Connection timeout"
	ErrTextConnectionRefused = "Connection refused"
	ErrTextNoResponse        = "No response received"
	ErrTextResolutionPrefix  = "Hostname resolution failed: "
)

// WebsiteResult is the outcome of CheckWebsite. StatusCode is nil when no
// response was received; Error is nil on any received response.
type WebsiteResult struct {
	URL        string  `json:"url"`
	StatusCode *int    `json:"status_code"`
	Message    string  `json:"message"`
	Error      *string `json:"error"`
}

// PortResult is the outcome of CheckPort. Error is set only when Status is
// StatusError.
type PortResult struct {
	Host   string  `json:"host"`
	Port   int     `json:"port"`
	Status string  `json:"status"`
	Error  *string `json:"error"`
}

// BannerResult is the outcome of GrabBanner.
type BannerResult struct {
	Host   string  `json:"host"`
	Port   int     `json:"port"`
	Banner *string `json:"banner"`
	Error  *string `json:"error"`
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
