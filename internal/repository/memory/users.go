package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/repository"
)

// UserStore is the in-memory account table.
type UserStore struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	byEmail map[string]string
}

// NewUserStore builds an empty user table.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

var _ repository.UserRepository = (*UserStore)(nil)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, taken := s.byEmail[email]; taken {
		return repository.ErrDuplicateEmail
	}
	stored := *user
	stored.Email = email
	s.users[user.ID] = stored
	s.byEmail[email] = user.ID
	return nil
}

func (s *UserStore) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	email := normalizeEmail(user.Email)
	if owner, taken := s.byEmail[email]; taken && owner != user.ID {
		return repository.ErrDuplicateEmail
	}
	delete(s.byEmail, current.Email)
	stored := *user
	stored.Email = email
	s.users[user.ID] = stored
	s.byEmail[email] = user.ID
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *UserStore) List(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// AreaStore keeps area assignments per user.
type AreaStore struct {
	mu    sync.RWMutex
	areas map[string][]domain.Area
}

// NewAreaStore builds an empty assignment table.
func NewAreaStore() *AreaStore {
	return &AreaStore{areas: make(map[string][]domain.Area)}
}

var _ repository.AreaRepository = (*AreaStore)(nil)

func (s *AreaStore) ListForUser(_ context.Context, userID string) ([]domain.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	areas := s.areas[userID]
	out := make([]domain.Area, len(areas))
	copy(out, areas)
	return out, nil
}

func (s *AreaStore) ReplaceForUser(_ context.Context, userID string, areas []domain.Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.areas[userID] = domain.NewAreaSet(areas...).Slice()
	return nil
}

// PasswordResetStore holds single-use reset tokens.
type PasswordResetStore struct {
	mu     sync.Mutex
	tokens map[string]domain.PasswordResetToken
}

// NewPasswordResetStore builds an empty token table.
func NewPasswordResetStore() *PasswordResetStore {
	return &PasswordResetStore{tokens: make(map[string]domain.PasswordResetToken)}
}

var _ repository.PasswordResetRepository = (*PasswordResetStore)(nil)

var timeNow = time.Now

func (s *PasswordResetStore) Create(_ context.Context, token *domain.PasswordResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.Token] = *token
	return nil
}

func (s *PasswordResetStore) GetByToken(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &stored, nil
}

func (s *PasswordResetStore) MarkUsed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, stored := range s.tokens {
		if stored.ID != id {
			continue
		}
		if stored.UsedAt != nil {
			return repository.ErrNotFound
		}
		now := timeNow()
		stored.UsedAt = &now
		s.tokens[key] = stored
		return nil
	}
	return repository.ErrNotFound
}
