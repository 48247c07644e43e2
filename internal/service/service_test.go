package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/kozzy/chamados/internal/auth"
	"github.com/kozzy/chamados/internal/config"
	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/events"
	"github.com/kozzy/chamados/internal/report"
	"github.com/kozzy/chamados/internal/repository/memory"
)

// fixture wires the services over the in-memory stores with two agents
// (Carla: TECHNICAL_SUPPORT and PAYMENT, Rafael: PAYMENT) and a supervisor.
type fixture struct {
	tickets    *TicketService
	auth       *AuthService
	registry   *AreaRegistry
	store      *memory.TicketStore
	users      *memory.UserStore
	areas      *memory.AreaStore
	dispatcher events.Dispatcher
	mu         sync.Mutex
	published  []events.Event

	supervisor *domain.Actor
	carla      *domain.Actor
	rafael     *domain.Actor
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	f := &fixture{
		store:      memory.NewTicketStore(0),
		users:      memory.NewUserStore(),
		areas:      memory.NewAreaStore(),
		dispatcher: events.NewInMemoryDispatcher(logger),
	}
	f.dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.published = append(f.published, e)
		return nil
	})
	f.registry = NewAreaRegistry(f.areas, f.users, f.dispatcher, logger)
	f.auth = NewAuthService(config.AuthConfig{
		JWTSecret:               "test",
		AccessTokenTTLMinutes:   5,
		PasswordResetTTLMinutes: 5,
		BcryptCost:              bcrypt.MinCost,
	}, AuthDependencies{
		UserRepo:          f.users,
		PasswordResetRepo: memory.NewPasswordResetStore(),
		Registry:          f.registry,
		Logger:            logger,
	})
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:  f.store,
		HistoryRepo: f.store.History(),
		UserRepo:    f.users,
		Lifecycle:   NewLifecycle(strict),
		Reports:     report.NewEngine(time.UTC),
		Dispatcher:  f.dispatcher,
		Logger:      logger,
	})

	f.supervisor = f.addUser(t, "sup", "Sonia", domain.RoleSupervisor)
	f.carla = f.addUser(t, "carla", "Carla", domain.RoleAgent, domain.AreaTechnicalSupport, domain.AreaPayment)
	f.rafael = f.addUser(t, "rafael", "Rafael", domain.RoleAgent, domain.AreaPayment)
	return f
}

func (f *fixture) addUser(t *testing.T, id, name string, role domain.Role, areas ...domain.Area) *domain.Actor {
	t.Helper()
	ctx := context.Background()
	hash, err := auth.HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.users.Create(ctx, &domain.User{
		ID: id, Name: name, Email: id + "@example.com", PasswordHash: hash, Role: role, Active: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := f.areas.ReplaceForUser(ctx, id, areas); err != nil {
		t.Fatal(err)
	}
	actor, err := f.auth.Authenticate(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	return actor
}

func (f *fixture) create(t *testing.T, actor *domain.Actor, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Create(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return ticket
}

func ptr[T any](v T) *T { return &v }
