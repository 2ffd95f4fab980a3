package dig_container

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/apps"
	echoapi "github.com/trezcool/ecole/apps/api/echo"
	"github.com/trezcool/ecole/core"
	inmemdb "github.com/trezcool/ecole/storage/database/inmem"
)

func TestNew(t *testing.T) {
	c := New(func() *core.Config {
		return &core.Config{
			AppName:  "École",
			Debug:    true,
			TestMode: true,
			Storage:  core.StorageConfig{Engine: core.StorageMemory},
		}
	})

	err := c.Invoke(func(school *apps.School, server echoapi.Server) {
		assert.IsType(t, &inmemdb.DB{}, school.KV)
		assert.Equal(t, apps.Stats{}, school.Stats())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Welcome to École API!", rec.Body.String())
	})
	require.NoError(t, err)
}
