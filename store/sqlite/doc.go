// Package sqlite provides SQLite-backed conversation storage.
//
// It suits single-process deployments such as the command-line chat, where a
// file on disk is enough to keep conversations across restarts. The table
// layout matches the postgres package: one row per message keyed by session
// id and sequence number, with the message stored as JSON text.
//
// # Basic Usage
//
//	conversations, err := sqlite.New(sqlite.Options{
//		Path: "./ragagent.db",
//	})
//	if err != nil {
//		return err
//	}
//	defer conversations.Close()
//
// Use ":memory:" as the path for a throwaway database in tests.
//
// The store holds a single connection, so writes from one process are
// serialized. The driver is github.com/mattn/go-sqlite3, which requires cgo.
package sqlite
