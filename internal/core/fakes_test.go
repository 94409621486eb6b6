package core

import (
	"context"
	"fmt"
	"sync"

	"intake-assistant/internal/llm"
	"intake-assistant/pkg"
)

// scriptedLLM returns configured replies in order; the last one repeats.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []scriptedReply
	calls   [][]llm.Message
}

type scriptedReply struct {
	Content string
	Err     error
}

func (s *scriptedLLM) Chat(_ context.Context, messages []llm.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]llm.Message(nil), messages...))
	if len(s.replies) == 0 {
		return "", fmt.Errorf("scripted: no replies configured")
	}
	idx := len(s.calls) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	r := s.replies[idx]
	return r.Content, r.Err
}

func (s *scriptedLLM) Summarize(_ context.Context, instruction, content string) (string, error) {
	return s.Chat(context.Background(), []llm.Message{{Role: "system", Content: instruction}, {Role: "user", Content: content}})
}

func (s *scriptedLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// memStore is an in-memory ProfileStore with per-operation failure
// injection.
type memStore struct {
	mu      sync.Mutex
	records map[string]pkg.Record
	fail    map[string]error
	ops     []string
}

func newMemStore() *memStore {
	return &memStore{records: map[string]pkg.Record{}, fail: map[string]error{}}
}

func (m *memStore) record(op string) error {
	m.ops = append(m.ops, op)
	return m.fail[op]
}

func (m *memStore) FindProfile(_ context.Context, phone string) (*pkg.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("find"); err != nil {
		return nil, err
	}
	rec, ok := m.records[phone]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &rec, nil
}

func (m *memStore) CreateProfile(_ context.Context, rec *pkg.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("create"); err != nil {
		return err
	}
	if _, ok := m.records[rec.PhoneNumber]; ok {
		return fmt.Errorf("create profile %s: already exists", rec.PhoneNumber)
	}
	m.records[rec.PhoneNumber] = *rec
	return nil
}

func (m *memStore) UpdateHistory(_ context.Context, phone, history string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("update_history"); err != nil {
		return err
	}
	rec, ok := m.records[phone]
	if !ok {
		return pkg.ErrNotFound
	}
	rec.MedicalHistory = history
	m.records[phone] = rec
	return nil
}

func (m *memStore) UpdateLanguage(_ context.Context, phone, language string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("update_language"); err != nil {
		return err
	}
	rec, ok := m.records[phone]
	if !ok {
		return pkg.ErrNotFound
	}
	rec.Language = language
	m.records[phone] = rec
	return nil
}

func (m *memStore) get(phone string) (pkg.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[phone]
	return rec, ok
}

func (m *memStore) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.ops {
		if o == op {
			n++
		}
	}
	return n
}
