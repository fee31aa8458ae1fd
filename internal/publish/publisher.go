package publish

import (
	"clanwatch/internal/providers"
	"clanwatch/internal/snapshot"
	"clanwatch/internal/structures"
	"context"
	"errors"
	"fmt"
	"time"
)

// Publisher ships the persisted datasets somewhere after an ingestion run.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, date time.Time) error
}

type multiPublisher struct {
	publishers []Publisher
	logger     providers.Logger
}

// NewPublisher returns every enabled publisher behind one Publisher. With
// nothing enabled Publish is a no-op.
func NewPublisher(conf *structures.Config, store snapshot.Store, logger providers.Logger) (Publisher, error) {
	m := &multiPublisher{logger: logger}
	if conf.Publish.Git.Enabled {
		m.publishers = append(m.publishers, NewGitPublisher(conf, logger))
	}
	if conf.Publish.S3.Enabled {
		s3p, err := NewS3Publisher(conf, store, logger)
		if err != nil {
			return nil, err
		}
		m.publishers = append(m.publishers, s3p)
	}
	return m, nil
}

func (m *multiPublisher) Name() string {
	return "multi"
}

// Publish runs every publisher and joins their errors.
func (m *multiPublisher) Publish(ctx context.Context, date time.Time) error {
	var errs []error
	for _, p := range m.publishers {
		m.logger.Infof(providers.TypeIngest, "Publishing snapshot via %s...", p.Name())
		if err := p.Publish(ctx, date); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
