package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/model"
	"resume-smart-go/internal/pipeline"
	"resume-smart-go/pkg/llm"
	"resume-smart-go/pkg/tasks"
)

// memorySegments 是 SegmentRepository 的内存实现。
type memorySegments struct {
	segments []model.Segment
	matches  []model.RetrievalMatch
	lastK    int
	err      error
}

func (m *memorySegments) BatchCreate(ctx context.Context, segments []model.Segment) error {
	if m.err != nil {
		return m.err
	}
	m.segments = append(m.segments, segments...)
	return nil
}

func (m *memorySegments) FindByUser(ctx context.Context, userID string, limit int) ([]model.Segment, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Segment
	for _, s := range m.segments {
		if s.UserID == userID && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memorySegments) DeleteByDocument(ctx context.Context, userID, documentID string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	kept := m.segments[:0]
	var deleted int64
	for _, s := range m.segments {
		if s.UserID == userID && s.DocumentID == documentID {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	m.segments = kept
	return deleted, nil
}

func (m *memorySegments) SearchNearText(ctx context.Context, userID, query string, limit int, category string) ([]model.RetrievalMatch, error) {
	m.lastK = limit
	if m.err != nil {
		return nil, m.err
	}
	var out []model.RetrievalMatch
	for _, r := range m.matches {
		if category != "" && r.Category != category {
			continue
		}
		if len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memorySegments) CountByUser(ctx context.Context, userID string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, s := range m.segments {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

// scriptedLLM 返回预设的输出并记录收到的 prompt。
type scriptedLLM struct {
	output string
	err    error
	calls  int
	prompt string
	params llm.GenerationParams
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, gen llm.GenerationParams) (string, error) {
	s.calls++
	s.prompt = prompt
	s.params = gen
	return s.output, s.err
}

// memoryUsers 是 UserRepository 的内存实现。
type memoryUsers struct {
	users []*model.User
}

func (m *memoryUsers) Create(user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email || u.UserID == user.UserID {
			return apperror.Conflict("user with this email already exists")
		}
	}
	user.CreatedAt = time.Now()
	m.users = append(m.users, user)
	return nil
}

func (m *memoryUsers) FindByEmail(email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user not found")
}

func (m *memoryUsers) FindByUserID(userID string) (*model.User, error) {
	for _, u := range m.users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user not found")
}

type memoryBlacklist struct {
	revoked map[string]time.Duration
}

func (m *memoryBlacklist) Revoke(ctx context.Context, tokenString string, ttl time.Duration) error {
	if m.revoked == nil {
		m.revoked = make(map[string]time.Duration)
	}
	m.revoked[tokenString] = ttl
	return nil
}

func (m *memoryBlacklist) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	_, ok := m.revoked[tokenString]
	return ok, nil
}

// memoryObjects 是 ObjectStore 的内存实现。
type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func (m *memoryObjects) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[objectName] = data
	return nil
}

func (m *memoryObjects) Get(ctx context.Context, objectName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[objectName]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (m *memoryObjects) RemovePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			delete(m.objects, name)
		}
	}
	return nil
}

type recordingProducer struct {
	tasks []tasks.IngestTask
	err   error
}

func (p *recordingProducer) ProduceIngestTask(ctx context.Context, task tasks.IngestTask) error {
	if p.err != nil {
		return p.err
	}
	p.tasks = append(p.tasks, task)
	return nil
}

type recordingIngestor struct {
	requests []pipeline.IngestRequest
}

func (r *recordingIngestor) Ingest(ctx context.Context, req pipeline.IngestRequest) (*model.IngestResult, error) {
	r.requests = append(r.requests, req)
	return &model.IngestResult{
		DocumentID:    "doc-sync",
		Filename:      req.Filename,
		ChunksCreated: 2,
		Status:        model.IngestStatusCompleted,
	}, nil
}
