package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"journal-assist-go/internal/model"
	"journal-assist-go/pkg/tasks"
)

// fakeEmbeddingClient 返回固定向量，记录调用次数。
type fakeEmbeddingClient struct {
	vector []float32
	err    error
	calls  int32
}

func (f *fakeEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbeddingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for range texts {
		v, err := f.CreateEmbedding(ctx, "")
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// fakeLLMClient 可配置摘要与对比的返回值或错误，记录调用次数。
type fakeLLMClient struct {
	mu            sync.Mutex
	summarizeErr  error
	compareErr    error
	summaryText   string
	compareText   string
	modelName     string
	summarizeArgs []string
	compareCalls  int
}

func (f *fakeLLMClient) Summarize(ctx context.Context, docText string, meta model.DocumentMetadata) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarizeArgs = append(f.summarizeArgs, docText)
	if f.summarizeErr != nil {
		return "", f.summarizeErr
	}
	if f.summaryText != "" {
		return f.summaryText, nil
	}
	return fmt.Sprintf("summary of %s", meta.SourceDocID), nil
}

func (f *fakeLLMClient) CompareTexts(ctx context.Context, summaryA string, metaA model.DocumentMetadata, summaryB string, metaB model.DocumentMetadata) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compareCalls++
	if f.compareErr != nil {
		return "", f.compareErr
	}
	if f.compareText != "" {
		return f.compareText, nil
	}
	return fmt.Sprintf("comparison of %s and %s", metaA.SourceDocID, metaB.SourceDocID), nil
}

func (f *fakeLLMClient) Model() string {
	if f.modelName != "" {
		return f.modelName
	}
	return "fake-model"
}

func (f *fakeLLMClient) summarizeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.summarizeArgs)
}

// fakeArchive 把载荷存进 map，模拟 MinIO 归档。
type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: make(map[string][]byte)}
}

func (f *fakeArchive) Put(ctx context.Context, objectName string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[objectName] = payload
	return nil
}

func (f *fakeArchive) Get(ctx context.Context, objectName string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.objects[objectName]
	if !ok {
		return nil, errors.New("object not found")
	}
	return payload, nil
}

// fakeTaskQueue 收集投递的任务，模拟 Kafka 生产者。
type fakeTaskQueue struct {
	mu         sync.Mutex
	enqueued   []tasks.ChunkIngestTask
	enqueueErr error
}

func (f *fakeTaskQueue) Enqueue(ctx context.Context, task tasks.ChunkIngestTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, task)
	return nil
}
