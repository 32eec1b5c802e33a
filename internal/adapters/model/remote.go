package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/okian/outbreak/internal/domain/risk"
	"github.com/okian/outbreak/pkg/logger"
)

const (
	defaultRemoteTimeout = 2 * time.Second
	defaultLabelPath     = "label"
	maxReplyBytes        = 64 << 10
)

// Remote is a predictor served by an HTTP model server. It posts
// {"features":[...]} and reads the decision at a configurable JSON path.
type Remote struct {
	url       string
	client    *http.Client
	labelPath string
	log       logger.Logger
}

// RemoteOption configures a Remote.
type RemoteOption func(*Remote)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) {
		if c != nil {
			r.client = c
		}
	}
}

// WithTimeout bounds each prediction request.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		if d > 0 {
			r.client = &http.Client{Timeout: d, Transport: r.client.Transport}
		}
	}
}

// WithLabelPath sets the gjson path of the decision in the reply,
// e.g. "predictions.0" for TensorFlow Serving style servers.
func WithLabelPath(path string) RemoteOption {
	return func(r *Remote) {
		if path != "" {
			r.labelPath = path
		}
	}
}

// WithRemoteLogger sets the logger.
func WithRemoteLogger(l logger.Logger) RemoteOption {
	return func(r *Remote) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRemote returns a predictor for the model server at url.
func NewRemote(url string, opts ...RemoteOption) *Remote {
	r := &Remote{
		url:       url,
		client:    &http.Client{Timeout: defaultRemoteTimeout},
		labelPath: defaultLabelPath,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

// Predict implements risk.Predictor.
func (r *Remote) Predict(ctx context.Context, x [risk.FeatureCount]float64) (int, error) {
	body, err := json.Marshal(predictRequest{Features: x[:]})
	if err != nil {
		return 0, r.unavailable(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return 0, r.unavailable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, r.unavailable(err)
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return 0, r.unavailable(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.log.Warn(ctx, "model server rejected prediction",
			logger.String("url", r.url),
			logger.Int("status", resp.StatusCode),
		)
		return 0, r.unavailable(fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}
	if !gjson.ValidBytes(reply) {
		return 0, r.unavailable(fmt.Errorf("%w: invalid json", ErrMalformedReply))
	}

	label := gjson.GetBytes(reply, r.labelPath)
	switch {
	case label.Type == gjson.Number && (label.Num == 0 || label.Num == 1):
		return int(label.Num), nil
	case label.Type == gjson.True:
		return 1, nil
	case label.Type == gjson.False:
		return 0, nil
	default:
		return 0, r.unavailable(fmt.Errorf("%w: %s = %q", ErrMalformedReply, r.labelPath, label.Raw))
	}
}

func (r *Remote) unavailable(err error) error {
	return &risk.ModelUnavailableError{Source: r.url, Err: err}
}
