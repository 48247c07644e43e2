package service

import (
	"context"
	"testing"
	"time"

	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/events"
	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	user, token, _, err := f.auth.Login(ctx, "CARLA@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := f.auth.TokenManager().ParseToken(token)
	if err != nil || claims.Subject != user.ID {
		t.Fatalf("token subject mismatch: %v %+v", err, claims)
	}

	actor, err := f.auth.Authenticate(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !actor.AssignedAreas.Contains(domain.AreaPayment) || actor.AssignedAreas.Contains(domain.AreaDelivery) {
		t.Fatalf("unexpected areas %v", actor.AssignedAreas.Slice())
	}

	if _, _, _, err := f.auth.Login(ctx, "carla@example.com", "nope"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	if _, _, _, err := f.auth.Login(ctx, "nobody@example.com", "secret1"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected Unauthorized for unknown email, got %v", err)
	}
	if _, err := f.auth.Authenticate(ctx, "ghost"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected Unauthorized for unknown user, got %v", err)
	}
}

func TestAuthenticateRejectsInactiveUser(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	user, _ := f.users.GetByID(ctx, "rafael")
	user.Active = false
	if err := f.users.Update(ctx, user); err != nil {
		t.Fatal(err)
	}
	if _, err := f.auth.Authenticate(ctx, "rafael"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	input := CreateUserInput{
		Name:     "Bruna",
		Email:    "bruna@example.com",
		Password: "longenough",
		Role:     domain.RoleAgent,
		Areas:    []string{"Financial", "COMMERCIAL"},
	}
	if _, err := f.auth.CreateUser(ctx, f.carla, input); !apperrors.HasCode(err, apperrors.CodeAuthorizationDenied) {
		t.Fatalf("agent must not create users, got %v", err)
	}

	created, err := f.auth.CreateUser(ctx, f.supervisor, input)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	want := []domain.Area{domain.AreaCommercial, domain.AreaFinancial}
	if len(created.Areas) != 2 || created.Areas[0] != want[0] || created.Areas[1] != want[1] {
		t.Fatalf("areas = %v, want %v", created.Areas, want)
	}

	if _, err := f.auth.CreateUser(ctx, f.supervisor, input); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("duplicate email must conflict, got %v", err)
	}

	bad := input
	bad.Email = "other@example.com"
	bad.Areas = []string{"NOWHERE"}
	if _, err := f.auth.CreateUser(ctx, f.supervisor, bad); !apperrors.HasCode(err, apperrors.CodeInvalidArea) {
		t.Fatalf("expected InvalidArea, got %v", err)
	}

	users, err := f.auth.ListUsers(ctx, f.supervisor)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 4 {
		t.Fatalf("expected 4 users, got %d", len(users))
	}
	if _, err := f.auth.ListUsers(ctx, f.rafael); !apperrors.HasCode(err, apperrors.CodeAuthorizationDenied) {
		t.Fatalf("agent must not list users, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	missing, err := f.auth.RequestPasswordReset(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Fatalf("unknown email should be silent, got %v %v", missing, err)
	}

	token, err := f.auth.RequestPasswordReset(ctx, "rafael@example.com")
	if err != nil || token == nil {
		t.Fatalf("request reset: %v", err)
	}
	if err := f.auth.ConfirmPasswordReset(ctx, token.Token, "newsecret"); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}
	if err := f.auth.ConfirmPasswordReset(ctx, token.Token, "another1"); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("token reuse must fail, got %v", err)
	}
	if _, _, _, err := f.auth.Login(ctx, "rafael@example.com", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	if err := f.auth.ChangePassword(ctx, f.carla, "wrong", "newsecret"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	if err := f.auth.ChangePassword(ctx, f.carla, "secret1", "abc"); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
	if err := f.auth.ChangePassword(ctx, f.carla, "secret1", "newsecret"); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := f.auth.Login(ctx, "carla@example.com", "newsecret"); err != nil {
		t.Fatalf("login after change: %v", err)
	}
}

func TestAreaRegistry(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	if got := f.registry.ListAreas(); len(got) != 7 || got[0] != domain.AreaTechnicalSupport {
		t.Fatalf("unexpected vocabulary %v", got)
	}
	unknown, err := f.registry.AreasFor(ctx, "ghost")
	if err != nil || len(unknown) != 0 {
		t.Fatalf("unknown actor must have no areas, got %v %v", unknown, err)
	}
	if _, err := f.registry.AssignAreas(ctx, f.carla, "rafael", []string{"DELIVERY"}); !apperrors.HasCode(err, apperrors.CodeAuthorizationDenied) {
		t.Fatalf("agent must not assign areas, got %v", err)
	}
	if _, err := f.registry.AssignAreas(ctx, f.supervisor, "ghost", []string{"DELIVERY"}); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NotFound for unknown user, got %v", err)
	}
	if _, err := f.registry.AssignAreas(ctx, f.supervisor, "rafael", []string{"SALES"}); !apperrors.HasCode(err, apperrors.CodeInvalidArea) {
		t.Fatalf("expected InvalidArea, got %v", err)
	}
	assigned, err := f.registry.AssignAreas(ctx, f.supervisor, "rafael", nil)
	if err != nil || len(assigned) != 0 {
		t.Fatalf("clearing areas: %v %v", assigned, err)
	}
	areas, _ := f.registry.AreasFor(ctx, "rafael")
	if len(areas) != 0 {
		t.Fatalf("rafael should have no areas, got %v", areas.Slice())
	}
}

func TestAssignAreasEventUsesRegistryClock(t *testing.T) {
	f := newFixture(t, false)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	f.registry.now = func() time.Time { return fixed }

	if _, err := f.registry.AssignAreas(context.Background(), f.supervisor, "rafael", []string{"DELIVERY"}); err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	last := f.published[len(f.published)-1]
	if last.Type != events.EventAreasAssigned {
		t.Fatalf("expected areas assigned event, got %s", last.Type)
	}
	if !last.Timestamp.Equal(fixed) {
		t.Fatalf("timestamp = %v, want %v", last.Timestamp, fixed)
	}
	payload, ok := last.Payload.(events.AreasAssignedPayload)
	if !ok || payload.UserID != "rafael" || len(payload.Areas) != 1 || payload.Areas[0] != domain.AreaDelivery {
		t.Fatalf("unexpected payload %+v", last.Payload)
	}
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	if _, err := f.auth.UpdateUser(ctx, f.carla, "rafael", UpdateUserInput{Active: ptr(false)}); !apperrors.HasCode(err, apperrors.CodeAuthorizationDenied) {
		t.Fatalf("agent must not edit users, got %v", err)
	}
	if _, err := f.auth.UpdateUser(ctx, f.supervisor, "ghost", UpdateUserInput{Name: ptr("x")}); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	cases := []struct {
		name  string
		id    string
		input UpdateUserInput
	}{
		{"blank name", "rafael", UpdateUserInput{Name: ptr("  ")}},
		{"unknown role", "rafael", UpdateUserInput{Role: ptr(domain.Role("ADMIN"))}},
		{"self demotion", "sup", UpdateUserInput{Role: ptr(domain.RoleAgent)}},
		{"self deactivation", "sup", UpdateUserInput{Active: ptr(false)}},
	}
	for _, tc := range cases {
		if _, err := f.auth.UpdateUser(ctx, f.supervisor, tc.id, tc.input); !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	updated, err := f.auth.UpdateUser(ctx, f.supervisor, "rafael", UpdateUserInput{Name: ptr(" Rafael Lima "), Active: ptr(false)})
	if err != nil {
		t.Fatal(err)
	}
	if updated.User.Name != "Rafael Lima" || updated.User.Active {
		t.Fatalf("unexpected user %+v", updated.User)
	}
	if len(updated.Areas) != 1 || updated.Areas[0] != domain.AreaPayment {
		t.Fatalf("areas = %v", updated.Areas)
	}

	if _, err := f.auth.Authenticate(ctx, "rafael"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("deactivated user must not authenticate, got %v", err)
	}
	if _, _, _, err := f.auth.Login(ctx, "rafael@example.com", "secret1"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("deactivated user must not log in, got %v", err)
	}

	if _, err := f.auth.UpdateUser(ctx, f.supervisor, "rafael", UpdateUserInput{Active: ptr(true)}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.auth.Authenticate(ctx, "rafael"); err != nil {
		t.Fatalf("reactivated user: %v", err)
	}
}
