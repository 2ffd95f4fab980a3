package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
	filedb "github.com/trezcool/ecole/storage/database/file"
	inmemdb "github.com/trezcool/ecole/storage/database/inmem"
)

func TestOpenKV(t *testing.T) {
	ctx := context.Background()
	dir, err := ioutil.TempDir("", "ecole-db")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	conf := &core.Config{Storage: core.StorageConfig{Engine: core.StorageMemory}}
	kv, err := OpenKV(ctx, conf)
	require.NoError(t, err)
	assert.IsType(t, &inmemdb.DB{}, kv)

	conf.Storage = core.StorageConfig{Engine: core.StorageFile, Dir: dir}
	kv, err = OpenKV(ctx, conf)
	require.NoError(t, err)
	assert.IsType(t, &filedb.DB{}, kv)

	conf.Storage.Engine = "redis"
	_, err = OpenKV(ctx, conf)
	assert.EqualError(t, err, `unknown storage engine "redis"`)
}

func TestMigrate(t *testing.T) {
	var got []string
	orig := gooseRunFunc
	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		got = append(got, fmt.Sprint(command, args))
		if command == "lol" {
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}
	defer func() { gooseRunFunc = orig }()

	require.NoError(t, Migrate(nil, "up"))
	require.NoError(t, Migrate(nil, "down-to", "1"))
	assert.EqualError(t, Migrate(nil, "lol"), `migrating database: "lol": no such command`)
	assert.Equal(t, []string{"up[]", "down-to[1]", "lol[]"}, got)
}
