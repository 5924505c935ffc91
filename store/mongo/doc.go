// Package mongo implements the hrflow store contracts on MongoDB.
// Entities live in one collection per kind with TypeID strings as _id.
// A unique compound index on (run_id, seq) enforces first-write-wins
// checkpoint semantics.
//
// The caller owns the client lifecycle -- the store never disconnects it:
//
//	client, _ := mongod.Connect(options.Client().ApplyURI(uri))
//	s := mongostore.New(client.Database("hrflow"))
//	s.Migrate(ctx)
package mongo
