package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/repository"
)

func newTicket(id, protocol string, area domain.Area, openedAt time.Time) *domain.Ticket {
	return &domain.Ticket{
		ID:       id,
		Protocol: protocol,
		Area:     area,
		Status:   domain.TicketStatusOpen,
		Priority: domain.TicketPriorityMedium,
		OpenedAt: openedAt,
	}
}

func TestCreateRejectsDuplicateProtocol(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(0)
	now := time.Now()

	if err := store.Create(ctx, newTicket("a", "12345", domain.AreaPayment, now)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := store.Create(ctx, newTicket("b", "12345", domain.AreaDelivery, now))
	if !errors.Is(err, repository.ErrDuplicateProtocol) {
		t.Fatalf("expected ErrDuplicateProtocol, got %v", err)
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 ticket, got %d", store.Count())
	}
	taken, _ := store.IsTaken(ctx, "12345")
	if !taken {
		t.Fatal("protocol should be taken")
	}
}

func TestCreateGeneratesProtocolSkippingTaken(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(500)
	now := time.Now()

	if err := store.Create(ctx, newTicket("manual", "500", domain.AreaOther, now)); err != nil {
		t.Fatal(err)
	}
	generated := newTicket("gen", "", domain.AreaOther, now)
	if err := store.Create(ctx, generated); err != nil {
		t.Fatal(err)
	}
	if generated.Protocol != "501" {
		t.Fatalf("expected 501, got %s", generated.Protocol)
	}
}

func TestConcurrentCreateSameProtocol(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(0)

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Create(ctx, newTicket(strconv.Itoa(i), "777", domain.AreaPayment, time.Now()))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else if !errors.Is(err, repository.ErrDuplicateProtocol) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 stored ticket, got %d", store.Count())
	}
}

func TestConcurrentGeneratedProtocolsAreDistinct(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(0)

	const workers = 50
	var wg sync.WaitGroup
	tickets := make([]*domain.Ticket, workers)
	for i := 0; i < workers; i++ {
		tickets[i] = newTicket(strconv.Itoa(i), "", domain.AreaFinancial, time.Now())
		wg.Add(1)
		go func(tk *domain.Ticket) {
			defer wg.Done()
			if err := store.Create(ctx, tk); err != nil {
				t.Errorf("create: %v", err)
			}
		}(tickets[i])
	}
	wg.Wait()

	seen := make(map[string]bool, workers)
	for _, tk := range tickets {
		if seen[tk.Protocol] {
			t.Fatalf("protocol %s generated twice", tk.Protocol)
		}
		seen[tk.Protocol] = true
	}
}

func TestListOrdersNewestFirstAndFiltersAreas(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(0)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	_ = store.Create(ctx, newTicket("1", "9", domain.AreaPayment, base))
	_ = store.Create(ctx, newTicket("2", "10", domain.AreaPayment, base))
	_ = store.Create(ctx, newTicket("3", "11", domain.AreaDelivery, base.Add(time.Hour)))

	all, err := store.List(ctx, repository.TicketFilter{})
	if err != nil {
		t.Fatal(err)
	}
	got := []string{all[0].Protocol, all[1].Protocol, all[2].Protocol}
	want := []string{"11", "10", "9"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v want %v", got, want)
		}
	}

	scoped, _ := store.List(ctx, repository.TicketFilter{Areas: []domain.Area{domain.AreaDelivery}})
	if len(scoped) != 1 || scoped[0].ID != "3" {
		t.Fatalf("unexpected scoped list: %+v", scoped)
	}

	none, _ := store.List(ctx, repository.TicketFilter{Areas: []domain.Area{}})
	if len(none) != 0 {
		t.Fatalf("empty area filter must match nothing, got %d", len(none))
	}
}

func TestUpdateKeepsProtocol(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(0)
	tk := newTicket("1", "42", domain.AreaPayment, time.Now())
	_ = store.Create(ctx, tk)

	changed := *tk
	changed.Protocol = "43"
	changed.Status = domain.TicketStatusClosed
	if err := store.Update(ctx, &changed); err != nil {
		t.Fatal(err)
	}
	stored, _ := store.GetByID(ctx, "1")
	if stored.Protocol != "42" || stored.Status != domain.TicketStatusClosed {
		t.Fatalf("unexpected stored ticket: %+v", stored)
	}

	missing := newTicket("nope", "1", domain.AreaPayment, time.Now())
	if err := store.Update(ctx, missing); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(0)
	tk := newTicket("1", "42", domain.AreaPayment, time.Now())
	_ = store.Create(ctx, tk)
	if tk.Version != 1 {
		t.Fatalf("created version = %d", tk.Version)
	}

	first := *tk
	second := *tk
	first.Status = domain.TicketStatusInProgress
	if err := store.Update(ctx, &first); err != nil {
		t.Fatal(err)
	}
	if first.Version != 2 {
		t.Fatalf("version after update = %d", first.Version)
	}

	second.Status = domain.TicketStatusClosed
	if err := store.Update(ctx, &second); !errors.Is(err, repository.ErrStaleTicket) {
		t.Fatalf("expected ErrStaleTicket, got %v", err)
	}
	stored, _ := store.GetByID(ctx, "1")
	if stored.Status != domain.TicketStatusInProgress || stored.Version != 2 {
		t.Fatalf("stale write landed: %+v", stored)
	}
}

func TestDeleteAllClearsHistory(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(0)
	_ = store.Create(ctx, newTicket("1", "", domain.AreaPayment, time.Now()))
	_ = store.History().Create(ctx, &domain.TicketHistory{ID: "h", TicketID: "1"})

	n, err := store.DeleteAll(ctx)
	if err != nil || n != 1 {
		t.Fatalf("DeleteAll = %d, %v", n, err)
	}
	entries, _ := store.History().ListByTicket(ctx, "1")
	if len(entries) != 0 {
		t.Fatalf("history not cleared: %d", len(entries))
	}
}

func TestUserStoreEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()
	if err := store.Create(ctx, &domain.User{ID: "1", Email: "Ana@Example.com"}); err != nil {
		t.Fatal(err)
	}
	err := store.Create(ctx, &domain.User{ID: "2", Email: " ana@example.com "})
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	user, err := store.GetByEmail(ctx, "ANA@example.com")
	if err != nil || user.ID != "1" {
		t.Fatalf("lookup failed: %v %+v", err, user)
	}
}

func TestPasswordResetMarkUsedOnce(t *testing.T) {
	ctx := context.Background()
	store := NewPasswordResetStore()
	_ = store.Create(ctx, &domain.PasswordResetToken{ID: "r1", Token: "tok"})

	if err := store.MarkUsed(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkUsed(ctx, "r1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second use should fail, got %v", err)
	}
}
