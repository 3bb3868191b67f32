package eventbus

type BatchEventType string

const (
	BatchEventStarted   BatchEventType = "BatchStarted"
	BatchEventProgress  BatchEventType = "BatchProgress"
	BatchEventCompleted BatchEventType = "BatchCompleted"
)

// BatchEvent 批量运行进度事件，计数均为累计值
type BatchEvent struct {
	Type         BatchEventType
	RunID        string
	OwnerID      string
	DatasetName  string
	Field        string
	Processed    int
	Total        int
	SuccessCount int
	FailureCount int
	Err          error // 仅 Completed 且运行失败时非空
}

func (e BatchEvent) EventType() BatchEventType {
	return e.Type
}

type BatchEventHandler = Handler[BatchEvent]
type BatchEventBus = Bus[BatchEventType, BatchEvent]

func NewBatchEventBus() *BatchEventBus {
	return NewBus[BatchEventType, BatchEvent]()
}
