// Package redis implements the hrflow store contracts on top of Redis.
// Suitable for development and ephemeral deployments. Entities are stored
// as JSON values, with Sets tracking IDs for enumeration and a Sorted Set
// per run indexing checkpoint sequence numbers.
//
// The caller owns the Redis client lifecycle -- the store never closes it:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis
