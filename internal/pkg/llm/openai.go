package llm

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
	"github.com/ppsgen/backend/config"
	"k8s.io/klog/v2"
)

// OpenAIGenerator 基于 eino OpenAI ChatModel 的生成器，适用于任意 OpenAI 兼容接口
type OpenAIGenerator struct {
	cfg config.LLMConfig

	once      sync.Once
	chatModel *openai.ChatModel
	initErr   error
}

// NewOpenAIGenerator 创建 OpenAI 兼容生成器
func NewOpenAIGenerator(cfg config.LLMConfig) *OpenAIGenerator {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{cfg: cfg}
}

func (g *OpenAIGenerator) getChatModel(ctx context.Context) (*openai.ChatModel, error) {
	g.once.Do(func() {
		mc := &openai.ChatModelConfig{
			BaseURL: g.cfg.APIURL,
			APIKey:  g.cfg.APIKey,
			Model:   g.cfg.Model,
		}
		if g.cfg.MaxTokens > 0 {
			maxTokens := g.cfg.MaxTokens
			mc.MaxTokens = &maxTokens
		}
		g.chatModel, g.initErr = openai.NewChatModel(ctx, mc)
		if g.initErr != nil {
			klog.Errorf("[OpenAI] 创建 ChatModel 失败: %v", g.initErr)
		}
	})
	return g.chatModel, g.initErr
}

// Generate 发送单轮 user 消息
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", ErrCredentialMissing
	}
	chatModel, err := g.getChatModel(ctx)
	if err != nil {
		return "", &UnexpectedStatusError{Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	msg, err := chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		classified := classifyText(err)
		klog.V(6).Infof("[OpenAI] 调用失败: model=%s, err=%v", g.cfg.Model, classified)
		return "", classified
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", &UnexpectedStatusError{StatusCode: http.StatusOK, Message: "empty completion"}
	}
	return msg.Content, nil
}
