package service

import (
	"context"
	"sort"
	"sync"

	"travel-chat-be/internal/entity"
	"travel-chat-be/internal/model"
	"travel-chat-be/internal/repository/contract"
	"travel-chat-be/internal/repository/specification"
	"travel-chat-be/internal/repository/unitofwork"
	"travel-chat-be/pkg/llm"

	"github.com/google/uuid"
)

// In-memory repository fakes. They interpret the specification structs
// the service actually uses, so query shape stays part of the test.

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type querySpec struct {
	id        *uuid.UUID
	sessionId *uuid.UUID
	userId    *uuid.UUID
	desc      bool
	ordered   bool
	limit     int
}

func parseSpecs(specs []specification.Specification) querySpec {
	q := querySpec{limit: -1}
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			id := sp.ID
			q.id = &id
		case specification.ByChatSessionID:
			id := sp.ChatSessionID
			q.sessionId = &id
		case specification.ByUserID:
			id := sp.UserID
			q.userId = &id
		case specification.OrderBy:
			q.ordered = true
			q.desc = sp.Desc
		case specification.Pagination:
			q.limit = sp.Limit
		}
	}
	return q
}

type fakeMessageRow struct {
	msg *entity.ChatMessage
	seq int
}

type fakeMessageRepo struct {
	mu   sync.Mutex
	rows []fakeMessageRow
	next int
}

func (r *fakeMessageRepo) Create(_ context.Context, m *entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *m
	r.rows = append(r.rows, fakeMessageRow{msg: &clone, seq: r.next})
	r.next++
	return nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.msg.Id == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeMessageRepo) DeleteAllBySessionId(_ context.Context, sessionId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.msg.ChatSessionId != sessionId {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *fakeMessageRepo) query(specs []specification.Specification) []fakeMessageRow {
	q := parseSpecs(specs)
	var out []fakeMessageRow
	for _, row := range r.rows {
		if q.id != nil && row.msg.Id != *q.id {
			continue
		}
		if q.sessionId != nil && row.msg.ChatSessionId != *q.sessionId {
			continue
		}
		out = append(out, row)
	}
	if q.ordered {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.msg.CreatedAt.Equal(b.msg.CreatedAt) {
				if q.desc {
					return a.seq > b.seq
				}
				return a.seq < b.seq
			}
			if q.desc {
				return a.msg.CreatedAt.After(b.msg.CreatedAt)
			}
			return a.msg.CreatedAt.Before(b.msg.CreatedAt)
		})
	}
	if q.limit >= 0 && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out
}

func (r *fakeMessageRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.query(specs)
	if len(rows) == 0 {
		return nil, nil
	}
	clone := *rows[0].msg
	return &clone, nil
}

func (r *fakeMessageRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.query(specs)
	out := make([]*entity.ChatMessage, len(rows))
	for i, row := range rows {
		clone := *row.msg
		out[i] = &clone
	}
	return out, nil
}

func (r *fakeMessageRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.query(specs))), nil
}

type fakeSessionRepo struct {
	mu   sync.Mutex
	rows []*entity.ChatSession
}

func (r *fakeSessionRepo) Create(_ context.Context, s *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *s
	r.rows = append(r.rows, &clone)
	return nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.Id == s.Id {
			clone := *s
			r.rows[i] = &clone
			return nil
		}
	}
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.Id == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeSessionRepo) query(specs []specification.Specification) []*entity.ChatSession {
	q := parseSpecs(specs)
	var out []*entity.ChatSession
	for _, row := range r.rows {
		if q.id != nil && row.Id != *q.id {
			continue
		}
		if q.userId != nil && row.UserId != *q.userId {
			continue
		}
		out = append(out, row)
	}
	return out
}

func (r *fakeSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.query(specs)
	if len(rows) == 0 {
		return nil, nil
	}
	clone := *rows[0]
	return &clone, nil
}

func (r *fakeSessionRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.query(specs)
	out := make([]*entity.ChatSession, len(rows))
	for i, row := range rows {
		clone := *row
		out[i] = &clone
	}
	return out, nil
}

func (r *fakeSessionRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.query(specs))), nil
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []*model.SystemLog
}

func (r *fakeLogRepo) Create(_ context.Context, entry *model.SystemLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *entry
	r.entries = append(r.entries, &clone)
	return nil
}

func (r *fakeLogRepo) all() []*model.SystemLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.SystemLog(nil), r.entries...)
}

type fakeUow struct {
	sessions *fakeSessionRepo
	messages *fakeMessageRepo
	logs     *fakeLogRepo
}

func (u *fakeUow) Begin(context.Context) error { return nil }
func (u *fakeUow) Commit() error               { return nil }
func (u *fakeUow) Rollback() error             { return nil }

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository { return u.sessions }
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return u.messages }
func (u *fakeUow) SystemLogRepository() contract.SystemLogRepository     { return u.logs }

type fakeFactory struct {
	uow *fakeUow
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		uow: &fakeUow{
			sessions: &fakeSessionRepo{},
			messages: &fakeMessageRepo{},
			logs:     &fakeLogRepo{},
		},
	}
}

func (f *fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }

// fakeStreamProvider replays canned fragments and records prompts.
type fakeStreamProvider struct {
	mu        sync.Mutex
	fragments []string
	prompts   []string
}

func (p *fakeStreamProvider) Stream(_ context.Context, prompt string, _ ...llm.Option) <-chan string {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	fragments := append([]string(nil), p.fragments...)
	p.mu.Unlock()

	out := make(chan string)
	go func() {
		defer close(out)
		for _, f := range fragments {
			out <- f
		}
	}()
	return out
}

func (p *fakeStreamProvider) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return ""
	}
	return p.prompts[len(p.prompts)-1]
}

type stubEnricher struct {
	note string
}

func (s stubEnricher) Enrich(context.Context, string) string { return s.note }
