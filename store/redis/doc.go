// Package redis provides Redis-backed conversation storage.
//
// Each session is kept as a Redis list of JSON encoded messages, which makes
// reads a single LRANGE and appends a single RPUSH. Appends run inside a
// MULTI/EXEC transaction together with the optional TTL refresh, so a turn's
// messages are visible either completely or not at all.
//
// # Key Layout
//
//	<prefix>session:<session id>   list of chat.Message JSON
//
// The default prefix is "ragagent:". Use a different prefix to share one
// Redis database between deployments.
//
// # Basic Usage
//
//	import (
//		"context"
//		"time"
//
//		"github.com/smallnest/ragagent/store/redis"
//	)
//
//	conversations := redis.New(redis.Options{
//		Addr:   "localhost:6379",
//		Prefix: "ragagent:",
//		TTL:    24 * time.Hour, // forget idle sessions after a day
//	})
//	defer conversations.Close()
//
//	session := agent.NewSession(controller, conversations)
//
// # Expiration
//
// When TTL is set every Append refreshes the expiration of the session key,
// so the TTL measures idle time rather than session age. Reset deletes the key
// immediately.
//
// # Clusters
//
// NewWithClient accepts any redis.UniversalClient, including cluster and
// failover clients. A session lives under a single key, so it is always
// served by one shard.
package redis
