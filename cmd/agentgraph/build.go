package main

import (
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/config"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	anthropicmodel "github.com/hupe1980/agentgraph/model/anthropic"
	openaimodel "github.com/hupe1980/agentgraph/model/openai"
	"github.com/hupe1980/agentgraph/session"
	redisstore "github.com/hupe1980/agentgraph/session/redis"
	"github.com/hupe1980/agentgraph/tool"
	"github.com/hupe1980/agentgraph/tool/newssearch"
	"github.com/hupe1980/agentgraph/tool/websearch"
)

// application bundles everything the commands need, plus the resources that
// must be released on shutdown.
type application struct {
	cfg    *config.Config
	logger logging.Logger
	graph  *graph.Graph
	queue  *model.FairQueue
}

func (a *application) Close() {
	if a.queue != nil {
		a.queue.Close()
	}
}

// buildApplication assembles the completion backend, tool registry, session
// store and workflow graph from configuration.
func buildApplication(cfgPath string) (*application, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	backend, err := buildCompleter(cfg)
	if err != nil {
		return nil, err
	}
	queue := model.NewFairQueue(backend, func(o *model.FairQueueOptions) {
		o.Workers = cfg.Model.Workers
	})

	registry := buildRegistry(cfg, logger)

	store, err := buildStore(cfg)
	if err != nil {
		queue.Close()
		return nil, err
	}

	router := agent.NewRouter(queue, registry, func(o *agent.RouterOptions) {
		o.Thinking = cfg.Model.Thinking
		o.Logger = logger
	})
	summarizer := agent.NewSummarizer(queue, func(o *agent.SummarizerOptions) {
		o.Thinking = cfg.Model.Thinking
		o.Logger = logger
	})

	g := graph.New(router, summarizer, registry, func(o *graph.Options) {
		o.Config = graph.Config{
			MaxToolParallel: cfg.Graph.MaxToolParallel,
			StepBufferSize:  cfg.Graph.StepBufferSize,
		}
		o.Store = store
		o.Logger = logger
	})

	return &application{cfg: cfg, logger: logger, graph: g, queue: queue}, nil
}

func buildCompleter(cfg *config.Config) (model.Completer, error) {
	switch cfg.Model.Provider {
	case "openai":
		var clientOpts []openaiopt.RequestOption
		if cfg.Model.APIKey != "" {
			clientOpts = append(clientOpts, openaiopt.WithAPIKey(cfg.Model.APIKey))
		}
		client := openaisdk.NewClient(clientOpts...)
		return openaimodel.NewFromClient(&client, func(o *openaimodel.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxCompletionTokens = int64(cfg.Model.MaxTokens)
		}), nil
	case "anthropic":
		return anthropicmodel.New(func(o *anthropicmodel.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxTokens = int64(cfg.Model.MaxTokens)
			o.APIKey = cfg.Model.APIKey
		}), nil
	case "mock":
		return model.NewMockCompleter(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

func buildRegistry(cfg *config.Config, logger logging.Logger) *tool.Registry {
	registry := tool.NewRegistry()

	if key := cfg.Tools.WebSearch.APIKey; key != "" {
		registry.Register(websearch.New(key, func(o *websearch.Options) {
			o.MaxResults = cfg.Tools.WebSearch.MaxResults
		}))
	}
	if key := cfg.Tools.NewsSearch.APIKey; key != "" {
		registry.Register(newssearch.New(key, func(o *newssearch.Options) {
			o.MaxArticles = cfg.Tools.NewsSearch.MaxResults
		}))
	}

	logger.Info("tools.registered", "tools", registry.Names())
	return registry
}

func buildStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "redis":
		return redisstore.New(cfg.Session.Redis.Addr, cfg.Session.Redis.Password, cfg.Session.Redis.DB, func(o *redisstore.Options) {
			o.TTL = cfg.Session.Redis.TTL
		}), nil
	case "memory":
		return session.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
