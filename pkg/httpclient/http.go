package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type BaseResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	Latency    time.Duration
}

// IsSuccess reports a 2xx status.
func (r *BaseResponse) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

type HTTPClient interface {
	Get(ctx context.Context, endpoint string, queryParams map[string]string, headers map[string]string, result interface{}) (*BaseResponse, error)
}

// StatusError is returned by callers that treat a non-2xx response as a failure.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
}
