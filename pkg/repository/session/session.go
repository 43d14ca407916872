// Package session holds the locally persisted login state: the bearer
// credential and the cached patient summary. Absence of either key is a
// valid logged-out state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/napryag/clinic_booking_bot/pkg/repository/model"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
)

const (
	KeyToken    = "token"
	KeyUserInfo = "userInfo"
)

var ErrNotFound = errors.New("session: key not found")

// Store is a small durable key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, keys ...string) error
}

// ClearAll removes the credential and the cached summary together.
func ClearAll(ctx context.Context, s Store) error {
	return s.Clear(ctx, KeyToken, KeyUserInfo)
}

// Token returns the stored credential or "" when there is none.
func Token(ctx context.Context, s Store) (string, error) {
	v, err := s.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

func SaveSummary(ctx context.Context, s Store, sum model.PatientSummary) error {
	b, err := json.Marshal(sum)
	if err != nil {
		return errs.New("failed to encode patient summary").Wrap(err)
	}
	return s.Set(ctx, KeyUserInfo, string(b))
}

// LoadSummary returns nil without error when nothing is cached or the cached
// value cannot be decoded.
func LoadSummary(ctx context.Context, s Store) (*model.PatientSummary, error) {
	raw, err := s.Get(ctx, KeyUserInfo)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sum model.PatientSummary
	if err := json.Unmarshal([]byte(raw), &sum); err != nil {
		return nil, nil
	}
	return &sum, nil
}

// Scoped gives every namespace (one per bot user) a private key space in a shared store.
func Scoped(inner Store, namespace string) Store {
	return &scoped{inner: inner, prefix: fmt.Sprintf("session:%s:", namespace)}
}

type scoped struct {
	inner  Store
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Clear(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.inner.Clear(ctx, full...)
}

// ---------- in-memory ----------

type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *Memory) Clear(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}
