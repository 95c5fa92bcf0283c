package bridge

// itemClass tags deferred client traffic by how it arrived.
type itemClass int

const (
	classBinaryAudio itemClass = iota
	classBase64Audio
	classText
)

var classNames = map[itemClass]string{
	classBinaryAudio: "binary-audio",
	classBase64Audio: "base64-audio",
	classText:        "text",
}

func (c itemClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "unknown"
}

func (c itemClass) isAudio() bool {
	return c == classBinaryAudio || c == classBase64Audio
}

// queueItem is one deferred task request.
type queueItem struct {
	class itemClass
	audio []byte
	text  string
}

// defaultQueueLimit bounds how many task items a client can park before the
// session gate opens. 256 binary chunks of 3200 bytes is ~25 s of 16 kHz
// s16le audio.
const defaultQueueLimit = 256

// taskQueue is the pre-ready buffer: a FIFO of task requests that arrived
// before SESSION_STARTED opened the task gate. Owned by the bridge run loop,
// accessed from a single goroutine, so it carries no lock.
type taskQueue struct {
	items        []queueItem
	limit        int
	droppedAudio int
}

func newTaskQueue(limit int) *taskQueue {
	if limit <= 0 {
		limit = defaultQueueLimit
	}
	return &taskQueue{limit: limit}
}

// append parks an item, evicting to stay within the bound. Oldest audio goes
// first (newest speech is the speech worth keeping); if no audio remains the
// oldest item goes regardless. Reports whether an eviction happened.
func (q *taskQueue) append(item queueItem) (evicted bool) {
	if len(q.items) >= q.limit {
		evicted = true
		dropAt := 0
		for i, it := range q.items {
			if it.class.isAudio() {
				dropAt = i
				break
			}
		}
		if q.items[dropAt].class.isAudio() {
			q.droppedAudio++
		}
		q.items = append(q.items[:dropAt], q.items[dropAt+1:]...)
	}
	q.items = append(q.items, item)
	return evicted
}

// drain hands back every parked item in arrival order and empties the queue.
func (q *taskQueue) drain() []queueItem {
	items := q.items
	q.items = nil
	return items
}

func (q *taskQueue) len() int { return len(q.items) }
