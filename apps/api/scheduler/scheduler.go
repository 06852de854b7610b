// Package scheduler runs the API's periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/video"
)

const pruneDevicesSpec = "@daily"

// DevicePruner is the part of video.Service the scheduler needs.
type DevicePruner interface {
	PruneDevices(ctx context.Context, before time.Time) (int64, error)
}

var _ DevicePruner = (*video.Service)(nil)

// New returns a stopped scheduler with the maintenance jobs registered.
func New(conf *core.Config, logger core.Logger, pruner DevicePruner) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	job := PruneDevicesJob(conf, logger, pruner, time.Now)
	if _, err := c.AddFunc(pruneDevicesSpec, job); err != nil {
		return nil, errors.Wrap(err, "scheduling device pruning")
	}
	return c, nil
}

// PruneDevicesJob returns the job forgetting the devices unseen for conf.Playback.DeviceRetention.
func PruneDevicesJob(conf *core.Config, logger core.Logger, pruner DevicePruner, now func() time.Time) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		before := now().UTC().Add(-conf.Playback.DeviceRetention)
		n, err := pruner.PruneDevices(ctx, before)
		if err != nil {
			msg := "pruning devices"
			logger.Error(msg, errors.Wrap(err, msg))
			return
		}
		logger.Info(fmt.Sprintf("pruned %d devices", n), map[string]interface{}{"before": before})
	}
}
