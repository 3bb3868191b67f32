package domain

import (
	"fmt"
	"strings"
)

// 占位/诊断文本。它们会写入条目字段，但永远不能被当作真实内容
const (
	PlaceholderNotGenerated = "Klik 'Buat Keterangan'"
	StatusFailedPrefix      = "Gagal diproses"
	StatusInputNotReady     = "Input data tidak siap"
	StatusRateLimited       = "Batas permintaan AI tercapai"
	StatusInsufficientData  = "Data tidak cukup"
	StatusRetriesExhausted  = "Gagal setelah beberapa percobaan"
)

var placeholderPhrases = []string{
	PlaceholderNotGenerated,
	StatusFailedPrefix,
	StatusInputNotReady,
	StatusRateLimited,
	StatusInsufficientData,
	StatusRetriesExhausted,
}

// CleanAIInput 去除首尾空白；若文本含任一占位短语则视为空
func CleanAIInput(text string) string {
	cleaned := strings.TrimSpace(text)
	for _, phrase := range placeholderPhrases {
		if strings.Contains(cleaned, phrase) {
			return ""
		}
	}
	return cleaned
}

// RetryingStatus 限流重试中的临时状态
func RetryingStatus(attempt, maxAttempts int) string {
	return fmt.Sprintf("%s, mencoba lagi... (%d/%d)", StatusRateLimited, attempt, maxAttempts)
}

// RetriesExhaustedStatus 限流重试耗尽后的状态
func RetriesExhaustedStatus() string {
	return StatusRetriesExhausted + " (Rate Limit)"
}

// FailedStatus 终止性错误的状态，内嵌错误信息
func FailedStatus(err error) string {
	return fmt.Sprintf("%s: %v", StatusFailedPrefix, err)
}
