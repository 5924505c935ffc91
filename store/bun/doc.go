// Package bunstore implements the hrflow store contracts using the Bun
// ORM. It works with both SQLite and PostgreSQL dialects, which makes it
// the backend of choice for single-binary deployments with a local
// database file.
//
// The caller owns the *bun.DB lifecycle -- bunstore never closes it. Pass
// the db handle through the constructor:
//
//	import (
//	    "github.com/uptrace/bun"
//	    "github.com/uptrace/bun/dialect/sqlitedialect"
//	    "github.com/uptrace/bun/driver/sqliteshim"
//	    bunstore "github.com/xraph/hrflow/store/bun"
//	)
//
//	sqldb, _ := sql.Open(sqliteshim.ShimName, "file:hrflow.db")
//	db := bun.NewDB(sqldb, sqlitedialect.New())
//	store := bunstore.New(db)
//	store.Migrate(ctx)
package bunstore
