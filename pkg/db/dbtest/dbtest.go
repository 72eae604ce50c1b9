// Package dbtest opens throwaway sqlite databases shaped like the production schema.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
  code TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'Active',
  address TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS loads (
  id TEXT PRIMARY KEY,
  truck_id TEXT NOT NULL DEFAULT '',
  project_code TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'Planned',
  is_inventory INTEGER NOT NULL DEFAULT 0,
  truck_info TEXT NOT NULL DEFAULT '{}',
  skids TEXT NOT NULL DEFAULT '[]',
  skid_count INTEGER NOT NULL DEFAULT 0,
  total_weight REAL NOT NULL DEFAULT 0,
  skid_seq INTEGER NOT NULL DEFAULT 0,
  packing_list TEXT NOT NULL DEFAULT '{}',
  additional_projects TEXT NOT NULL DEFAULT '[]',
  version INTEGER NOT NULL DEFAULT 1,
  created_by TEXT,
  updated_by TEXT,
  date_entered DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_loads_inventory_project ON loads (project_code) WHERE is_inventory = 1;
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`

// Open returns an isolated in-memory database with the fleet tables created.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}
