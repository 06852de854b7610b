package logsvc

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/user"
)

func TestRollbarLogger(t *testing.T) {
	std, hook := test.NewNullLogger()
	conf := core.NewTestConfig()
	conf.Debug = true
	logger := NewRollbarLogger(std, conf)

	usr := user.User{ID: "u1", Name: "Noa", Email: "noa@tirgul.test"}
	err := errors.New("boom")

	logger.Debug("debugging")
	logger.Info("pruned devices", map[string]interface{}{"count": 3})
	logger.Warn("no tutors found", usr)
	logger.Error("querying tutors", err, map[string]interface{}{"degree": "cs"}, usr)

	entries := hook.AllEntries()
	if assert.Len(t, entries, 4) {
		assert.Equal(t, logrus.DebugLevel, entries[0].Level)
		assert.Equal(t, "debugging", entries[0].Message)

		assert.Equal(t, logrus.InfoLevel, entries[1].Level)
		assert.Equal(t, 3, entries[1].Data["count"])

		assert.Equal(t, logrus.WarnLevel, entries[2].Level)
		assert.Equal(t, "u1", entries[2].Data["user"])

		assert.Equal(t, logrus.ErrorLevel, entries[3].Level)
		assert.Equal(t, err, entries[3].Data[logrus.ErrorKey])
		assert.Equal(t, "cs", entries[3].Data["degree"])
		assert.Equal(t, "u1", entries[3].Data["user"])
	}
}

func TestReports(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		token string
		want  bool
	}{
		{name: "debug without token", debug: true},
		{name: "debug with token", debug: true, token: "tkn"},
		{name: "no token", debug: false},
		{name: "token", debug: false, token: "tkn", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := core.NewTestConfig()
			conf.Debug = tt.debug
			conf.RollbarToken = tt.token
			assert.Equal(t, tt.want, Reports(conf))
		})
	}
}

func TestComponentHook(t *testing.T) {
	std := logrus.New()
	std.Out = io.Discard
	std.AddHook(ComponentHook("API"))
	hook := test.NewLocal(std)

	std.Info("started")
	std.WithField("component", "DB").Info("connected")

	entries := hook.AllEntries()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "API", entries[0].Data["component"])
		assert.Equal(t, "DB", entries[1].Data["component"])
	}
}
