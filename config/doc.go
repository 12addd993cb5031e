// Package config loads ragagent settings from YAML and the environment.
//
// A minimal ragagent.yaml:
//
//	model:
//	  provider: openai
//	  name: gpt-4o-mini
//	vector_store:
//	  kind: chroma
//	  url: http://localhost:8000
//	store:
//	  kind: redis
//	  addr: localhost:6379
//
// Every key can be overridden with an environment variable such as
// RAGAGENT_MODEL_NAME or RAGAGENT_AGENT_MAX_ROUNDS.
package config
