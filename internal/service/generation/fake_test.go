package generation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/model"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string

	inFlight    int32
	maxInFlight int32
	delay       time.Duration

	GenerateFunc func(call int, prompt string) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls++
	call := f.calls
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.GenerateFunc != nil {
		return f.GenerateFunc(call, prompt)
	}
	return "hasil", nil
}

func (f *fakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration

	// OnSleep 每次等待时调用
	OnSleep func()
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	if s.OnSleep != nil {
		s.OnSleep()
	}
	return ctx.Err()
}

func (s *sleepRecorder) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waits)
}

// itemWithPlan 满足 IndicatorConfig 前置条件的条目
func itemWithPlan(i int) *model.Item {
	code := fmt.Sprintf("1.1.1.%d", i)
	return model.NewItem(fmt.Sprintf("%s-%d", code, i), code, map[model.FieldName]string{
		model.FieldDescription:           fmt.Sprintf("Uraian %d", i),
		model.FieldCorrectionPlan:        "Susun regulasi",
		model.FieldEvidenceDocumentTitle: domain.PlaceholderNotGenerated,
	})
}
