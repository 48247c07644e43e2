package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether s is one of the three lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// ClientType categorizes who opened the contact.
type ClientType string

const (
	ClientTypeCourier    ClientType = "COURIER"
	ClientTypeSeller     ClientType = "SELLER"
	ClientTypeCustomer   ClientType = "CUSTOMER"
	ClientTypeInternal   ClientType = "INTERNAL"
	ClientTypeSupervisor ClientType = "SUPERVISOR"
	ClientTypeManager    ClientType = "MANAGER"
)

// Valid reports whether c is a known client type. The empty value is allowed.
func (c ClientType) Valid() bool {
	switch c {
	case "", ClientTypeCourier, ClientTypeSeller, ClientTypeCustomer,
		ClientTypeInternal, ClientTypeSupervisor, ClientTypeManager:
		return true
	}
	return false
}

// Ticket is a unit of customer-service work (chamado).
type Ticket struct {
	ID                string
	Protocol          string
	Area              Area
	Status            TicketStatus
	Priority          TicketPriority
	ClientType        ClientType
	ClientLabel       string
	AssignedAgentID   string
	AssignedAgentName string
	Description       string
	CreatedByID       string
	OpenedAt          time.Time
	LastModifiedAt    time.Time
	ClosedAt          *time.Time
	// Version is bumped by every stored update; writes carry the version
	// they were decided on.
	Version int64
}
