package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/coralmesh/llmgateway/internal/config"
	"github.com/coralmesh/llmgateway/llm"
)

// SetupRoutes registers the six inbound-dialect routes against their
// real-world wire paths, plus a health check.
func SetupRoutes(engine *gin.Engine, cfg config.ServerConfig, gw *Gateway) {
	engine.Use(Recovery(), RequestID(), AccessLog())

	if cfg.CORS.Enabled {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
		engine.Use(cors.New(corsCfg))
	}

	engine.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	v1 := engine.Group("/v1")
	{
		v1.POST("/chat/completions", gw.Handle(llm.APIFormatOpenAIChat, llm.ServiceOpenAI))
		v1.POST("/completions", gw.Handle(llm.APIFormatOpenAIText, llm.ServiceOpenAI))
		v1.POST("/images/generations", gw.Handle(llm.APIFormatOpenAIImage, llm.ServiceOpenAI))
		v1.POST("/complete", gw.Handle(llm.APIFormatAnthropic, llm.ServiceAnthropic))
	}

	engine.POST("/v1beta/models/:model", gw.Handle(llm.APIFormatGoogleAI, llm.ServiceGoogleAI))

	mistral := engine.Group("/mistral/v1")
	{
		mistral.POST("/chat/completions", gw.Handle(llm.APIFormatMistralAI, llm.ServiceMistralAI))
	}
}
