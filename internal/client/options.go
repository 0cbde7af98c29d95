package client

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type options struct {
	token      string
	timeout    time.Duration
	httpClient *http.Client
	log        *zap.SugaredLogger
}

func newOptions(opts ...Option) (*options, error) {
	o := &options{timeout: 15 * time.Second}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

type Option func(o *options) error

func WithBearerToken(token string) Option {
	return func(o *options) error {
		o.token = token
		return nil
	}
}

// WithHTTPClient replaces the default client; WithTimeout is ignored then.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		o.httpClient = hc
		return nil
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.timeout = d
		return nil
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) error {
		o.log = log
		return nil
	}
}
