package sql

import (
	"embed"
)

// PostgresMigrations holds the Postgres DDL, applied in filename order.
//
//go:embed migrations/postgres/*.sql
var PostgresMigrations embed.FS

// SQLiteMigrations holds the SQLite DDL, applied in filename order.
//
//go:embed migrations/sqlite/*.sql
var SQLiteMigrations embed.FS

//go:embed queries/postgres/load_master.sql
var LoadMaster string

//go:embed queries/postgres/truncate_master.sql
var TruncateMaster string

//go:embed queries/postgres/advisory_lock.sql
var AdvisoryLock string

//go:embed queries/postgres/advisory_unlock.sql
var AdvisoryUnlock string

//go:embed queries/sqlite/load_master.sql
var SQLiteLoadMaster string

//go:embed queries/sqlite/delete_master.sql
var SQLiteDeleteMaster string

//go:embed queries/sqlite/insert_master.sql
var SQLiteInsertMaster string
