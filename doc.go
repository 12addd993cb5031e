// Package ragagent is a retrieval-augmented conversational agent.
//
// A question goes through a turn loop: the model either answers or asks for
// the retrieve_context tool, whose passages come from a vector store filled
// by the ingest package. The loop ends when the model answers or its round
// budget is spent. Conversations persist per session in a pluggable store.
//
// # Packages
//
//   - chat: messages, tool calls and conversations
//   - model: the model port with go-openai and langchaingo adapters
//   - retrieval: the retrieval port over langchaingo vector stores
//   - tool: typed tool handlers and the static registry
//   - graph: the generic state graph the turn loop runs on
//   - agent: the turn controller and the session interface
//   - store: conversation stores (memory, redis, postgres, sqlite, file)
//   - ingest: loading, splitting and indexing documents
//   - server: HTTP and WebSocket transport
//   - config: YAML and environment configuration
//   - log: leveled logging backed by golog
//
// # Quick Start
//
//	llm, _ := openai.New()
//	embedder, _ := embeddings.NewEmbedder(llm)
//	index := retrieval.NewMemoryIndex(embedder)
//
//	retrieve, _ := tool.RetrieveContext(index, 4)
//	registry, _ := tool.NewRegistry(retrieve)
//
//	controller, _ := agent.NewController(model.NewLangChain(llm), registry)
//	session := agent.NewSession(controller, store.NewMemoryStore())
//
//	answer, err := session.Submit(ctx, agent.NewSessionID(), "What is X?")
//
// The ragagent command wires the same pieces from a config file and offers
// chat, serve and ingest subcommands.
package ragagent
