package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/ppsgen/backend/config"
	"google.golang.org/genai"
	"k8s.io/klog/v2"
)

// GeminiGenerator 基于 Google GenAI SDK 的生成器
type GeminiGenerator struct {
	cfg config.LLMConfig

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiGenerator 创建 Gemini 生成器，客户端在首次调用时初始化
func NewGeminiGenerator(cfg config.LLMConfig) *GeminiGenerator {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &GeminiGenerator{cfg: cfg}
}

func (g *GeminiGenerator) getClient(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		cc := &genai.ClientConfig{
			APIKey:     g.cfg.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: g.cfg.Timeout},
		}
		if g.cfg.APIURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.cfg.APIURL}
		}
		g.client, g.initErr = genai.NewClient(ctx, cc)
		if g.initErr != nil {
			klog.Errorf("[Gemini] 创建客户端失败: %v", g.initErr)
		}
	})
	return g.client, g.initErr
}

// Generate 发送单轮 user 消息，返回首个候选文本
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", ErrCredentialMissing
	}
	client, err := g.getClient(ctx)
	if err != nil {
		return "", &UnexpectedStatusError{Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	var genCfg *genai.GenerateContentConfig
	if g.cfg.MaxTokens > 0 {
		genCfg = &genai.GenerateContentConfig{MaxOutputTokens: int32(g.cfg.MaxTokens)}
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), genCfg)
	if err != nil {
		classified := classifyGeminiError(err)
		klog.V(6).Infof("[Gemini] 调用失败: model=%s, err=%v", g.cfg.Model, classified)
		return "", classified
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &UnexpectedStatusError{StatusCode: http.StatusOK, Message: "empty candidate"}
	}
	return text, nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyStatus(apiErrPtr.Code, apiErrPtr.Message)
	}
	if classified := classifyTransport(err); classified != nil {
		return classified
	}
	return classifyText(err)
}
