package dig_container

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/tirgul/apps/api/echo"
	"github.com/trezcool/tirgul/core"
)

func TestNew_inMemory(t *testing.T) {
	c := New(func() *core.Config {
		conf := core.NewTestConfig()
		conf.Database.Engine = engineInMem
		return conf
	})

	err := c.Invoke(func(db *sqlx.DB, jobs *cron.Cron, server *echoapi.Server) {
		assert.Nil(t, db)
		assert.Len(t, jobs.Entries(), 1)

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/catalog/cs/specializations", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	require.NoError(t, err)
}
