package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCode 分类编码段数不足 4
var ErrInvalidCode = errors.New("invalid classification code")

// Code 分类编码解析结果：BAB.Standar.Kriteria.EP
type Code struct {
	Chapter       string
	Standard      string
	Criterion     string
	ElementSuffix string
}

// ParseCode 按 "." 切分分类编码，前三段为章节/标准/评估标准，其余段拼接为要素后缀
func ParseCode(code string) (Code, error) {
	parts := strings.Split(code, ".")
	if len(parts) < 4 {
		return Code{}, fmt.Errorf("%w: %q has %d segments", ErrInvalidCode, code, len(parts))
	}
	return Code{
		Chapter:       parts[0],
		Standard:      parts[1],
		Criterion:     parts[2],
		ElementSuffix: strings.Join(parts[3:], "."),
	}, nil
}
