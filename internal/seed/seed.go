// Package seed loads an initial data set (accounts, area assignments and
// sample tickets) from a YAML file. Applying the same file twice is a no-op:
// known emails and protocols are skipped.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/repository"
	"github.com/kozzy/chamados/internal/service"
	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

// File is the on-disk seed document.
type File struct {
	Users   []User   `yaml:"users"`
	Tickets []Ticket `yaml:"tickets"`
}

// User describes one account.
type User struct {
	Name     string   `yaml:"name"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Role     string   `yaml:"role"`
	Areas    []string `yaml:"areas"`
}

// Ticket describes one sample ticket. Assignee is an account email.
type Ticket struct {
	Protocol    string    `yaml:"protocol"`
	Area        string    `yaml:"area"`
	Priority    string    `yaml:"priority"`
	Status      string    `yaml:"status"`
	ClientType  string    `yaml:"client_type"`
	Client      string    `yaml:"client"`
	Assignee    string    `yaml:"assignee"`
	Description string    `yaml:"description"`
	OpenedAt    time.Time `yaml:"opened_at"`
}

// Result counts what Apply did.
type Result struct {
	UsersCreated   int
	UsersSkipped   int
	TicketsCreated int
	TicketsSkipped int
}

// Load reads and decodes a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &file, nil
}

// Seeder applies seed files through the regular services so the same
// validation and authorization rules hold for seeded data.
type Seeder struct {
	auth    *service.AuthService
	tickets *service.TicketService
	users   repository.UserRepository
	logger  *zap.Logger
}

// NewSeeder wires a seeder.
func NewSeeder(auth *service.AuthService, tickets *service.TicketService, users repository.UserRepository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{auth: auth, tickets: tickets, users: users, logger: logger}
}

// bootstrap creates the first accounts, before any supervisor exists.
var bootstrap = &domain.Actor{
	ID:            "seed",
	DisplayName:   "seed",
	Role:          domain.RoleSupervisor,
	AssignedAreas: domain.NewAreaSet(),
}

// Apply creates the users first, then the tickets. Tickets are opened on
// behalf of the first supervisor listed in the file.
func (s *Seeder) Apply(ctx context.Context, file *File) (Result, error) {
	var result Result
	var owner *domain.Actor

	for _, u := range file.Users {
		created, err := s.auth.CreateUser(ctx, bootstrap, service.CreateUserInput{
			Name:     u.Name,
			Email:    u.Email,
			Password: u.Password,
			Role:     domain.Role(strings.ToUpper(strings.TrimSpace(u.Role))),
			Areas:    u.Areas,
		})
		switch {
		case apperrors.HasCode(err, apperrors.CodeConflict):
			result.UsersSkipped++
		case err != nil:
			return result, fmt.Errorf("seed user %s: %w", u.Email, err)
		default:
			result.UsersCreated++
			s.logger.Info("seeded user", zap.String("email", created.User.Email))
		}

		if owner == nil && strings.EqualFold(strings.TrimSpace(u.Role), string(domain.RoleSupervisor)) {
			owner, err = s.actorFor(ctx, u.Email)
			if err != nil {
				return result, err
			}
		}
	}

	if len(file.Tickets) == 0 {
		return result, nil
	}
	if owner == nil {
		return result, errors.New("seed tickets require a supervisor in the users list")
	}

	for _, t := range file.Tickets {
		created, err := s.applyTicket(ctx, owner, t)
		if err != nil {
			return result, fmt.Errorf("seed ticket %s: %w", t.Protocol, err)
		}
		if created {
			result.TicketsCreated++
		} else {
			result.TicketsSkipped++
		}
	}
	return result, nil
}

func (s *Seeder) applyTicket(ctx context.Context, owner *domain.Actor, t Ticket) (bool, error) {
	input := service.TicketCreateInput{
		Protocol:    t.Protocol,
		Area:        t.Area,
		Priority:    domain.TicketPriority(strings.ToUpper(t.Priority)),
		ClientType:  domain.ClientType(strings.ToUpper(t.ClientType)),
		ClientLabel: t.Client,
		Description: t.Description,
	}
	if !t.OpenedAt.IsZero() {
		opened := t.OpenedAt
		input.OpenedAt = &opened
	}
	if t.Assignee != "" {
		assignee, err := s.users.GetByEmail(ctx, t.Assignee)
		if err != nil {
			return false, fmt.Errorf("assignee %s: %w", t.Assignee, err)
		}
		input.AssignedAgentID = assignee.ID
	}

	ticket, err := s.tickets.Create(ctx, owner, input)
	if apperrors.HasCode(err, apperrors.CodeDuplicateProtocol) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if status := domain.TicketStatus(strings.ToUpper(t.Status)); status != "" && status != ticket.Status {
		if _, err := s.tickets.Patch(ctx, owner, ticket.ID, service.TicketPatch{Status: &status}); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Seeder) actorFor(ctx context.Context, email string) (*domain.Actor, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("resolve seed supervisor: %w", err)
	}
	return s.auth.Authenticate(ctx, user.ID)
}
