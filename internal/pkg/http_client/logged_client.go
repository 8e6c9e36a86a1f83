package http_client

import (
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// botTokenPattern matches the token segment of Bot API URLs: /bot<id>:<secret>/ and /file/bot<id>:<secret>/.
var botTokenPattern = regexp.MustCompile(`/bot\d+:[A-Za-z0-9_-]+`)

// LoggedClient logs every request it performs. Bot tokens never reach the log.
type LoggedClient struct {
	*http.Client
	logger *zap.Logger
}

func NewLoggedClient(timeout time.Duration, logger *zap.Logger) *LoggedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &LoggedClient{
		Client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *LoggedClient) Do(req *http.Request) (*http.Response, error) {
	startTime := time.Now()

	resp, err := c.Client.Do(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", RedactURL(req.URL.String())),
		zap.Duration("duration", time.Since(startTime)),
	}
	if err != nil {
		// url.Error embeds the full URL.
		c.logger.Warn("http request failed", append(fields, zap.String("error", RedactURL(err.Error())))...)
		return nil, err
	}

	fields = append(fields, zap.Int("status", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Warn("http request", fields...)
	} else {
		c.logger.Debug("http request", fields...)
	}
	return resp, nil
}

func RedactURL(s string) string {
	return botTokenPattern.ReplaceAllString(s, "/bot<redacted>")
}
