package interfaces

import "context"

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	RunOnce(ctx context.Context) error
}
