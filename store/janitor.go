package store

import (
	"context"

	"github.com/robfig/cron/v3"

	"scrollvite/pkg/logger"
)

// Purger is implemented by stores that need expired rows removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StartJanitor purges expired entries of p on spec (standard cron syntax or
// descriptors such as "@every 1h"). name only labels the log lines. Stop the
// returned cron on shutdown.
func StartJanitor(name string, p Purger, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := p.PurgeExpired(context.Background())
		if err != nil {
			logger.Sugar.Errorf("Failed to purge expired %s: %v", name, err)
			return
		}
		if n > 0 {
			logger.Sugar.Infof("Purged %d expired %s", n, name)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
