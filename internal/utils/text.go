package utils

import (
	"strings"

	"k8s.io/klog/v2"
)

const codeFence = "```"

// StripCodeFence 提取模型回复中第一个代码块的内容（```markdown ... ``` 或 ``` ... ```）
// 没有完整代码块时返回去除首尾空白的原文
func StripCodeFence(content string) string {
	start := strings.Index(content, codeFence)
	if start < 0 {
		return strings.TrimSpace(content)
	}
	body := content[start+len(codeFence):]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isFenceLabel(body[:nl]) {
		body = body[nl+1:]
	}
	end := strings.Index(body, codeFence)
	if end < 0 {
		klog.V(6).Infof("[StripCodeFence] 代码块未闭合，返回原始内容")
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(body[:end])
}

// isFenceLabel 代码块首行只允许语言标识
func isFenceLabel(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
