package llm

import (
	"context"
	"time"

	"github.com/ppsgen/backend/config"
	"k8s.io/klog/v2"
)

// Generator 单次文本生成调用：输入 prompt，输出文本或一个已分类的错误
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc 函数适配器
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// NewGenerator 按配置创建生成器；apiKeyOverride 非空时覆盖配置中的 Key
// Key 缺失不会在这里报错，而是在每次调用时返回 ErrCredentialMissing
func NewGenerator(cfg config.LLMConfig, apiKeyOverride string) Generator {
	if apiKeyOverride != "" {
		cfg.APIKey = apiKeyOverride
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	switch cfg.Provider {
	case "openai":
		klog.V(6).Infof("使用 OpenAI 兼容生成器: model=%s, url=%s", cfg.Model, cfg.APIURL)
		return NewOpenAIGenerator(cfg)
	default:
		klog.V(6).Infof("使用 Gemini 生成器: model=%s", cfg.Model)
		return NewGeminiGenerator(cfg)
	}
}
