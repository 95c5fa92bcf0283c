package bridge

import (
	"bytes"
	"testing"
)

func TestTaskQueueFIFO(t *testing.T) {
	q := newTaskQueue(8)
	q.append(queueItem{class: classBinaryAudio, audio: []byte{1}})
	q.append(queueItem{class: classText, text: "hello"})
	q.append(queueItem{class: classBase64Audio, audio: []byte{2}})

	if q.len() != 3 {
		t.Fatalf("len = %d, want 3", q.len())
	}

	items := q.drain()
	if q.len() != 0 {
		t.Errorf("len after drain = %d, want 0", q.len())
	}
	if len(items) != 3 {
		t.Fatalf("drained %d items, want 3", len(items))
	}
	if items[0].class != classBinaryAudio || !bytes.Equal(items[0].audio, []byte{1}) {
		t.Errorf("item 0 = %v", items[0])
	}
	if items[1].class != classText || items[1].text != "hello" {
		t.Errorf("item 1 = %v", items[1])
	}
	if items[2].class != classBase64Audio || !bytes.Equal(items[2].audio, []byte{2}) {
		t.Errorf("item 2 = %v", items[2])
	}
}

func TestTaskQueueOverflowDropsOldestAudio(t *testing.T) {
	q := newTaskQueue(3)
	q.append(queueItem{class: classBinaryAudio, audio: []byte{1}})
	q.append(queueItem{class: classBinaryAudio, audio: []byte{2}})
	q.append(queueItem{class: classText, text: "keep"})

	if evicted := q.append(queueItem{class: classBinaryAudio, audio: []byte{3}}); !evicted {
		t.Fatal("append over the limit did not evict")
	}
	if q.droppedAudio != 1 {
		t.Errorf("droppedAudio = %d, want 1", q.droppedAudio)
	}

	items := q.drain()
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	if !bytes.Equal(items[0].audio, []byte{2}) {
		t.Errorf("oldest audio not evicted, head = %v", items[0])
	}
	if items[1].text != "keep" {
		t.Errorf("text item lost: %v", items[1])
	}
	if !bytes.Equal(items[2].audio, []byte{3}) {
		t.Errorf("new item missing: %v", items[2])
	}
}

func TestTaskQueueOverflowAllText(t *testing.T) {
	q := newTaskQueue(2)
	q.append(queueItem{class: classText, text: "a"})
	q.append(queueItem{class: classText, text: "b"})
	if evicted := q.append(queueItem{class: classText, text: "c"}); !evicted {
		t.Fatal("append over the limit did not evict")
	}
	if q.droppedAudio != 0 {
		t.Errorf("droppedAudio = %d, want 0", q.droppedAudio)
	}
	items := q.drain()
	if items[0].text != "b" || items[1].text != "c" {
		t.Errorf("items = %v", items)
	}
}

func TestTaskQueueDefaultLimit(t *testing.T) {
	q := newTaskQueue(0)
	if q.limit != defaultQueueLimit {
		t.Errorf("limit = %d, want %d", q.limit, defaultQueueLimit)
	}
}

func TestItemClassString(t *testing.T) {
	if classBinaryAudio.String() != "binary-audio" {
		t.Errorf("String() = %q", classBinaryAudio.String())
	}
	if !classBase64Audio.isAudio() || classText.isAudio() {
		t.Error("isAudio misclassifies")
	}
}
