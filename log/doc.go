// Package log provides the leveled logging interface used by the ragagent
// packages.
//
// Components accept a Logger through their options and fall back to the
// package-level default, which is a GologLogger writing to stderr at
// LogLevelInfo. The turn controller uses it as its observability channel:
// every classified failure of a turn is reported here even when the caller
// only receives a user-facing answer.
//
//	logger := log.NewLogger(os.Stderr, log.LogLevelDebug)
//	log.SetDefaultLogger(logger)
//
// Levels can be parsed from configuration with ParseLevel.
package log
