package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/chroma"
	"github.com/tmc/langchaingo/vectorstores/pgvector"

	"github.com/smallnest/ragagent/agent"
	"github.com/smallnest/ragagent/config"
	"github.com/smallnest/ragagent/ingest"
	"github.com/smallnest/ragagent/log"
	"github.com/smallnest/ragagent/model"
	"github.com/smallnest/ragagent/retrieval"
	"github.com/smallnest/ragagent/store"
	filestore "github.com/smallnest/ragagent/store/file"
	pgstore "github.com/smallnest/ragagent/store/postgres"
	redisstore "github.com/smallnest/ragagent/store/redis"
	sqlitestore "github.com/smallnest/ragagent/store/sqlite"
	"github.com/smallnest/ragagent/tool"
)

// app holds the components built from configuration.
type app struct {
	cfg     *config.Config
	logger  log.Logger
	closers []func() error
}

func newApp() (*app, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.NeedsAPIKey() && cfg.Model.APIKey == "" {
		return nil, errors.New("no API key: set model.api_key, RAGAGENT_MODEL_API_KEY or OPENAI_API_KEY")
	}

	level, _ := log.ParseLevel(cfg.Log.Level)
	logger := log.NewLogger(os.Stderr, level)
	log.SetDefaultLogger(logger)

	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases everything the app opened, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func (a *app) newLangChainOpenAI(opts ...lcopenai.Option) (*lcopenai.LLM, error) {
	mc := a.cfg.Model
	opts = append(opts, lcopenai.WithToken(mc.APIKey))
	if mc.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(mc.BaseURL))
	}
	return lcopenai.New(opts...)
}

func (a *app) newOllama(name string) (*ollama.LLM, error) {
	opts := []ollama.Option{ollama.WithModel(name)}
	if a.cfg.Model.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(a.cfg.Model.BaseURL))
	}
	return ollama.New(opts...)
}

func (a *app) newModel() (model.Model, error) {
	mc := a.cfg.Model
	callOpts := []llms.CallOption{llms.WithTemperature(mc.Temperature)}
	if mc.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(mc.MaxTokens))
	}

	var m model.Model
	switch mc.Provider {
	case "openai":
		m = model.NewOpenAI(model.OpenAIOptions{
			APIKey:      mc.APIKey,
			BaseURL:     mc.BaseURL,
			Model:       mc.Name,
			Temperature: float32(mc.Temperature),
			MaxTokens:   mc.MaxTokens,
		})
	case "langchain-openai":
		llm, err := a.newLangChainOpenAI(lcopenai.WithModel(mc.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		m = model.NewLangChain(llm, callOpts...)
	case "ollama":
		llm, err := a.newOllama(mc.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		m = model.NewLangChain(llm, callOpts...)
	default:
		return nil, fmt.Errorf("unknown model provider %q", mc.Provider)
	}

	a.logger.Info("model: provider=%s name=%s", mc.Provider, mc.Name)
	return model.WithTimeout(m, mc.Timeout), nil
}

func (a *app) newEmbedder() (embeddings.Embedder, error) {
	var client embeddings.EmbedderClient
	var err error
	if a.cfg.Model.Provider == "ollama" {
		client, err = a.newOllama(a.cfg.Embedding.Model)
	} else {
		client, err = a.newLangChainOpenAI(lcopenai.WithEmbeddingModel(a.cfg.Embedding.Model))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	return embeddings.NewEmbedder(client)
}

func (a *app) newVectorStore(ctx context.Context, embedder embeddings.Embedder) (vectorstores.VectorStore, error) {
	vc := a.cfg.VectorStore
	a.logger.Info("vector store: kind=%s collection=%s", vc.Kind, vc.Collection)

	switch vc.Kind {
	case "memory":
		return retrieval.NewMemoryIndex(embedder), nil
	case "chroma":
		s, err := chroma.New(
			chroma.WithChromaURL(vc.URL),
			chroma.WithEmbedder(embedder),
			chroma.WithDistanceFunction("cosine"),
			chroma.WithNameSpace(vc.Collection),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to chroma: %w", err)
		}
		return s, nil
	case "pgvector":
		s, err := pgvector.New(ctx,
			pgvector.WithConnectionURL(vc.URL),
			pgvector.WithEmbedder(embedder),
			pgvector.WithCollectionName(vc.Collection),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to pgvector: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown vector store %q", vc.Kind)
	}
}

func (a *app) newConversationStore(ctx context.Context) (store.ConversationStore, error) {
	sc := a.cfg.Store
	a.logger.Info("conversation store: kind=%s", sc.Kind)

	switch sc.Kind {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		s := redisstore.New(redisstore.Options{Addr: sc.Addr, Prefix: sc.Prefix, TTL: sc.TTL})
		a.onClose(s.Close)
		return s, nil
	case "postgres":
		s, err := pgstore.New(ctx, pgstore.Options{ConnString: sc.DSN})
		if err != nil {
			return nil, err
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		a.onClose(func() error { s.Close(); return nil })
		return s, nil
	case "sqlite":
		path := sc.Path
		if path == "" {
			path = "ragagent.db"
		}
		s, err := sqlitestore.New(sqlitestore.Options{Path: path})
		if err != nil {
			return nil, err
		}
		a.onClose(s.Close)
		return s, nil
	case "file":
		dir := sc.Path
		if dir == "" {
			dir = "sessions"
		}
		s, err := filestore.New(dir)
		if err != nil {
			return nil, err
		}
		a.logger.Info("conversation files: dir=%s", s.Dir())
		return s, nil
	default:
		return nil, fmt.Errorf("unknown conversation store %q", sc.Kind)
	}
}

// newIngester builds the ingestion pipeline over vs.
func (a *app) newIngester(vs vectorstores.VectorStore) (*ingest.Ingester, error) {
	ic := a.cfg.Ingest
	splitter, err := ingest.NewSplitter(ic.ChunkSize, ic.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return ingest.NewIngester(vs, splitter,
		ingest.WithBatchSize(ic.BatchSize),
		ingest.WithSmokeQuery(ic.SmokeQuery),
		ingest.WithLogger(a.logger),
	), nil
}

// newSession wires the model, the retrieval tool and the conversation store.
// An in-memory index is filled from ingest.dir first, since it starts empty.
func (a *app) newSession(ctx context.Context) (*agent.Session, error) {
	embedder, err := a.newEmbedder()
	if err != nil {
		return nil, err
	}
	vs, err := a.newVectorStore(ctx, embedder)
	if err != nil {
		return nil, err
	}
	if a.cfg.VectorStore.Kind == "memory" {
		in, err := a.newIngester(vs)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		if _, err := in.Run(ctx, a.cfg.Ingest.Dir); err != nil {
			a.logger.Warn("in-memory index is empty: %v", err)
		} else {
			a.logger.Info("indexed %s in %s", a.cfg.Ingest.Dir, time.Since(start).Round(time.Millisecond))
		}
	}

	var retrieverOpts []retrieval.VectorStoreOption
	if t := a.cfg.VectorStore.ScoreThreshold; t > 0 {
		retrieverOpts = append(retrieverOpts, retrieval.WithScoreThreshold(float32(t)))
	}
	retrieve, err := tool.RetrieveContext(retrieval.NewVectorStore(vs, retrieverOpts...), a.cfg.VectorStore.K)
	if err != nil {
		return nil, err
	}
	registry, err := tool.NewRegistry(retrieve)
	if err != nil {
		return nil, err
	}

	m, err := a.newModel()
	if err != nil {
		return nil, err
	}

	opts := []agent.Option{
		agent.WithMaxRounds(a.cfg.Agent.MaxRounds),
		agent.WithModelRetry(a.cfg.Agent.ModelRetries, 500*time.Millisecond),
		agent.WithLogger(a.logger),
	}
	if a.cfg.Agent.SystemPrompt != "" {
		opts = append(opts, agent.WithSystemPrompt(a.cfg.Agent.SystemPrompt))
	}
	controller, err := agent.NewController(m, registry, opts...)
	if err != nil {
		return nil, err
	}

	conversations, err := a.newConversationStore(ctx)
	if err != nil {
		return nil, err
	}
	return agent.NewSession(controller, conversations, agent.WithSessionLogger(a.logger)), nil
}
