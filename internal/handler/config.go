package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ppsgen/backend/config"
	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/model"
)

type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

type ConfigResponse struct {
	LLM         LLMConfigResponse   `json:"llm"`
	Batch       BatchConfigResponse `json:"batch"`
	Generatable []model.FieldName   `json:"generatable_fields"`
}

type LLMConfigResponse struct {
	Provider  string `json:"provider"`
	APIURL    string `json:"api_url"`
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

type BatchConfigResponse struct {
	ChunkSize    int   `json:"chunk_size"`
	ChunkDelayMs int64 `json:"chunk_delay_ms"`
	MaxAttempts  int   `json:"max_attempts"`
}

// Get 返回运行配置，API Key 脱敏
func (h *ConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{
		LLM: LLMConfigResponse{
			Provider:  h.cfg.LLM.Provider,
			APIURL:    h.cfg.LLM.APIURL,
			APIKey:    maskKey(h.cfg.LLM.APIKey),
			Model:     h.cfg.LLM.Model,
			MaxTokens: h.cfg.LLM.MaxTokens,
		},
		Batch: BatchConfigResponse{
			ChunkSize:    h.cfg.Batch.ChunkSize,
			ChunkDelayMs: h.cfg.Batch.ChunkDelay.Milliseconds(),
			MaxAttempts:  h.cfg.Batch.MaxAttempts,
		},
		Generatable: domain.GeneratableFields(),
	})
}

func maskKey(key string) string {
	if len(key) <= 8 {
		if key == "" {
			return ""
		}
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func (h *ConfigHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/config", h.Get)
}
