package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// 远程生成调用的错误分类。除 ErrRateLimited 外均为终止性错误，不重试
var (
	ErrCredentialMissing = errors.New("llm: api key missing")
	ErrCredentialInvalid = errors.New("llm: api key invalid")
	ErrNetwork           = errors.New("llm: network failure")
	ErrRateLimited       = errors.New("llm: rate limited")
)

// UnexpectedStatusError 非预期的响应（HTTP 状态或空响应）
type UnexpectedStatusError struct {
	StatusCode int
	Message    string
}

func (e *UnexpectedStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm: unexpected response status %d", e.StatusCode)
	}
	return fmt.Sprintf("llm: unexpected response status %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited 是否为可重试的限流错误
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

var rateLimitKeywords = []string{
	"rate limit",
	"quota exceeded",
	"too many requests",
	"rate-limited",
	"resource_exhausted",
	"request rate exceeded",
}

var invalidKeyKeywords = []string{
	"api key not valid",
	"invalid api key",
	"incorrect api key",
	"invalid_api_key",
	"unauthorized",
}

var networkKeywords = []string{
	"connection refused",
	"no such host",
	"dial tcp",
	"connection reset",
	"i/o timeout",
	"tls handshake",
}

// classifyStatus 按 HTTP 状态码归类
func classifyStatus(code int, message string) error {
	switch {
	case code == 429:
		return ErrRateLimited
	case code == 400 && strings.Contains(message, "API key not valid"):
		return fmt.Errorf("%w: %s", ErrCredentialInvalid, message)
	case code == 401 || code == 403:
		return fmt.Errorf("%w: %s", ErrCredentialInvalid, message)
	default:
		return &UnexpectedStatusError{StatusCode: code, Message: message}
	}
}

// classifyTransport 识别传输层错误，无法识别时返回 nil
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return nil
}

// statusPattern 匹配 "status code: 429"、"status=401"、"HTTP 429"、"429 Too Many Requests" 等写法
var statusPattern = regexp.MustCompile(`(?i)(?:status(?:[ _]?code)?\s*[:=]?\s*|http(?:/\d(?:\.\d)?)?\s+)(\d{3})\b|\b(\d{3})\s+(?:too many requests|unauthorized|forbidden|bad request|internal server error|service unavailable|bad gateway|gateway timeout)`)

// statusFromText 从错误文本中提取 HTTP 状态码，孤立的数字不算
func statusFromText(msg string) (int, bool) {
	m := statusPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	code, err := strconv.Atoi(digits)
	if err != nil || code < 100 || code > 599 {
		return 0, false
	}
	return code, true
}

// classifyText 只有错误文本可用时按关键词归类（OpenAI 兼容接口经 eino 包装后的错误）
func classifyText(err error) error {
	if err == nil {
		return nil
	}
	if code, ok := statusFromText(err.Error()); ok {
		return classifyStatus(code, err.Error())
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range rateLimitKeywords {
		if strings.Contains(msg, kw) {
			return ErrRateLimited
		}
	}
	for _, kw := range invalidKeyKeywords {
		if strings.Contains(msg, kw) {
			return fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
		}
	}
	if classified := classifyTransport(err); classified != nil {
		return classified
	}
	for _, kw := range networkKeywords {
		if strings.Contains(msg, kw) {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
	}
	return &UnexpectedStatusError{Message: err.Error()}
}

// NotificationText 面向用户的全局提示文案
func NotificationText(err error) string {
	switch {
	case errors.Is(err, ErrCredentialInvalid):
		return "Kunci API tidak valid."
	case errors.Is(err, ErrCredentialMissing):
		return "Harap masukkan Kunci API Google AI Anda."
	case errors.Is(err, ErrNetwork):
		return "Gagal terhubung ke server AI. Periksa koneksi internet."
	default:
		return fmt.Sprintf("Gagal menghubungi AI: %v", err)
	}
}
