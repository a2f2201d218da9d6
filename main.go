package main

import (
	"context"

	"github.com/rs/zerolog/log"

	historyx "github.com/euporia-ai/concierge/agent/history"
	insightx "github.com/euporia-ai/concierge/agent/insight"
	merchantsx "github.com/euporia-ai/concierge/agent/merchants"
	orchestratorx "github.com/euporia-ai/concierge/agent/orchestrator"
	plannerx "github.com/euporia-ai/concierge/agent/planner"
	promptx "github.com/euporia-ai/concierge/agent/prompt"
	shopx "github.com/euporia-ai/concierge/agent/shop"
	statex "github.com/euporia-ai/concierge/agent/state"
	toolx "github.com/euporia-ai/concierge/agent/tool"
	configx "github.com/euporia-ai/concierge/pkg/config"
	_ "github.com/euporia-ai/concierge/pkg/logger/autoload"
	openrouterx "github.com/euporia-ai/concierge/pkg/openrouter"
	shopmcpx "github.com/euporia-ai/concierge/pkg/shopmcp"
	serverx "github.com/euporia-ai/concierge/server"
)

func main() {
	ctx := context.Background()

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("create chat model")
	}
	openAIClient := openrouterx.NewClient(*openRouterCfg)
	if openAIClient == nil {
		log.Fatal().Msg("failed to initialize openrouter client")
	}

	mcpCfg := configx.MustNew[shopmcpx.Config]("SHOP_MCP")
	gateway := shopmcpx.MustNew(*mcpCfg)

	redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	stateStore, err := statex.NewUpstashRedisStore(*redisCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create redis store")
	}

	pgCfg := configx.MustNew[historyx.Config]("POSTGRES")
	historyStore, err := historyx.New(*pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create postgres store")
	}

	directory := merchantsx.NewDirectory(nil)
	shopClient := shopx.NewClient(gateway)
	resolver := shopx.NewResolver(shopClient, directory)

	agentPlanner, err := plannerx.New(chatModel, toolx.Infos())
	if err != nil {
		log.Fatal().Err(err).Msg("create planner")
	}
	executor := toolx.NewExecutor(shopClient, stateStore, stateStore)

	chat, err := orchestratorx.New(agentPlanner, executor, stateStore, historyStore, promptx.Concierge())
	if err != nil {
		log.Fatal().Err(err).Msg("create orchestrator")
	}

	insights, err := insightx.NewGenerator(openAIClient, historyStore, openRouterCfg.InsightModelName())
	if err != nil {
		log.Fatal().Err(err).Msg("create insight generator")
	}

	serverCfg := configx.MustNew[serverx.Config]("SERVER")
	srv, err := serverx.New(*serverCfg, serverx.Deps{
		Chat:          chat,
		Shop:          shopClient,
		Resolver:      resolver,
		Insights:      insights,
		Conversations: historyStore,
		Wishlist:      historyStore,
		Carts:         stateStore,
		Merchants:     directory,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create server")
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}
