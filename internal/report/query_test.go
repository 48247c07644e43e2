package report

import (
	"reflect"
	"testing"
	"time"

	"github.com/kozzy/chamados/internal/domain"
)

func mustDate(t *testing.T, e *Engine, value string) time.Time {
	t.Helper()
	d, err := e.ParseDate(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func at(value string) time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return ts
}

func sampleTickets() []domain.Ticket {
	return []domain.Ticket{
		{Protocol: "10234", Status: domain.TicketStatusInProgress, Priority: domain.TicketPriorityHigh,
			ClientLabel: "Joao da Silva", AssignedAgentName: "Mariana Silva", Area: domain.AreaTechnicalSupport,
			OpenedAt: at("2024-01-15T14:30:00Z")},
		{Protocol: "10235", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityMedium,
			ClientLabel: "Maria Oliveira", AssignedAgentName: "Fernanda Costa", Area: domain.AreaFinancial,
			OpenedAt: at("2024-01-15T23:59:00Z")},
		{Protocol: "10236", Status: domain.TicketStatusInProgress, Priority: domain.TicketPriorityLow,
			ClientLabel: "Carlos Santos", AssignedAgentName: "Carla Santos", Area: domain.AreaCommercial,
			OpenedAt: at("2024-01-14T09:45:00Z")},
		{Protocol: "10240", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityUrgent,
			ClientLabel: "Roberto Silva", AssignedAgentName: "Carla Santos", Area: domain.AreaTechnicalSupport,
			OpenedAt: at("2024-01-16T08:45:00Z")},
	}
}

func protocols(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, tk := range tickets {
		out = append(out, tk.Protocol)
	}
	return out
}

func TestQueryIncludesEndOfDayBoundary(t *testing.T) {
	e := NewEngine(time.UTC)
	f := Filter{DateFrom: mustDate(t, e, "2024-01-15"), DateTo: mustDate(t, e, "2024-01-15")}
	got := protocols(e.Query(sampleTickets(), f))
	want := []string{"10234", "10235"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestQueryIgnoresTimeOfDayOnBounds(t *testing.T) {
	e := NewEngine(time.UTC)
	f := Filter{DateFrom: at("2024-01-15T18:00:00Z"), DateTo: at("2024-01-15T01:00:00Z")}
	got := protocols(e.Query(sampleTickets(), f))
	if len(got) != 2 {
		t.Fatalf("expected both tickets of the day, got %v", got)
	}
}

func TestQueryUsesEngineLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	e := NewEngine(loc)
	// 23:59Z on the 15th is 20:59 local on the 15th; 01:00Z on the 16th is still the 15th locally.
	tickets := []domain.Ticket{
		{Protocol: "a", OpenedAt: at("2024-01-15T23:59:00Z")},
		{Protocol: "b", OpenedAt: at("2024-01-16T01:00:00Z")},
		{Protocol: "c", OpenedAt: at("2024-01-16T04:00:00Z")},
	}
	f := Filter{DateFrom: mustDate(t, e, "2024-01-15"), DateTo: mustDate(t, e, "2024-01-15")}
	got := protocols(e.Query(tickets, f))
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestQueryAttributeFilters(t *testing.T) {
	e := NewEngine(time.UTC)
	open := domain.TicketStatusOpen
	urgent := domain.TicketPriorityUrgent
	base := Filter{DateFrom: mustDate(t, e, "2024-01-01"), DateTo: mustDate(t, e, "2024-01-31")}

	cases := []struct {
		name   string
		mutate func(*Filter)
		want   []string
	}{
		{"no attributes", func(*Filter) {}, []string{"10234", "10235", "10236", "10240"}},
		{"status", func(f *Filter) { f.Status = &open }, []string{"10235", "10240"}},
		{"priority", func(f *Filter) { f.Priority = &urgent }, []string{"10240"}},
		{"agent contains", func(f *Filter) { f.AgentNameContains = "CARLA" }, []string{"10236", "10240"}},
		{"client contains", func(f *Filter) { f.ClientContains = "silva" }, []string{"10234", "10240"}},
		{"combined", func(f *Filter) { f.Status = &open; f.ClientContains = "silva" }, []string{"10240"}},
		{"blank strings ignored", func(f *Filter) { f.AgentNameContains = "  " }, []string{"10234", "10235", "10236", "10240"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := base
			tc.mutate(&f)
			got := protocols(e.Query(sampleTickets(), f))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestQueryIsIdempotentAndKeepsOrder(t *testing.T) {
	e := NewEngine(time.UTC)
	in := sampleTickets()
	// reverse to prove the engine never re-sorts
	for i, j := 0, len(in)-1; i < j; i, j = i+1, j-1 {
		in[i], in[j] = in[j], in[i]
	}
	f := Filter{DateFrom: mustDate(t, e, "2024-01-14"), DateTo: mustDate(t, e, "2024-01-15"), AgentNameContains: "a"}
	once := e.Query(in, f)
	twice := e.Query(once, f)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("query not idempotent: %v vs %v", protocols(once), protocols(twice))
	}
	if got := protocols(once); !reflect.DeepEqual(got, []string{"10236", "10235", "10234"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestFilterValidate(t *testing.T) {
	day := at("2024-01-15T00:00:00Z")
	if err := (Filter{}).Validate(); err != ErrMissingDates {
		t.Fatalf("expected ErrMissingDates, got %v", err)
	}
	if err := (Filter{DateFrom: day.AddDate(0, 0, 1), DateTo: day}).Validate(); err != ErrInvertedRange {
		t.Fatalf("expected ErrInvertedRange, got %v", err)
	}
	if err := (Filter{DateFrom: day.Add(20 * time.Hour), DateTo: day}).Validate(); err != nil {
		t.Fatalf("same-day range should be valid, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTickets())
	if s.Total != 4 {
		t.Fatalf("expected total 4, got %d", s.Total)
	}
	if s.ByStatus[domain.TicketStatusOpen] != 2 || s.ByStatus[domain.TicketStatusInProgress] != 2 {
		t.Fatalf("unexpected status counts %v", s.ByStatus)
	}
	if s.ByArea[domain.AreaTechnicalSupport] != 2 {
		t.Fatalf("unexpected area counts %v", s.ByArea)
	}
}
