package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/tests"
)

type prunerMock struct {
	before time.Time
	n      int64
	err    error
}

func (m *prunerMock) PruneDevices(_ context.Context, before time.Time) (int64, error) {
	m.before = before
	return m.n, m.err
}

func TestPruneDevicesJob(t *testing.T) {
	conf := core.NewTestConfig()
	now := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("pruned", func(t *testing.T) {
		logger := testutil.NewLoggerMock()
		pruner := &prunerMock{n: 3}
		PruneDevicesJob(conf, logger, pruner, clock)()

		assert.Equal(t, now.Add(-conf.Playback.DeviceRetention), pruner.before)
		infos := logger.Entries("info")
		require.Len(t, infos, 1)
		assert.Equal(t, "pruned 3 devices", infos[0].Msg)
	})

	t.Run("failure is logged", func(t *testing.T) {
		logger := testutil.NewLoggerMock()
		PruneDevicesJob(conf, logger, &prunerMock{err: errors.New("db down")}, clock)()
		assert.Len(t, logger.Entries("error"), 1)
		assert.Empty(t, logger.Entries("info"))
	})
}

func TestNew(t *testing.T) {
	c, err := New(core.NewTestConfig(), testutil.NewLoggerMock(), &prunerMock{})
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
}
