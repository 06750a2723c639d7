package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket statuses. Only the available→sold transition is ever performed;
// "reserved" exists in the store but no flow assigns it.
const (
	TicketAvailable = "available"
	TicketSold      = "sold"
	TicketReserved  = "reserved"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	MatchID    int64     `bun:"match_id,nullzero" json:"match_id,omitempty"`
	Event      string    `bun:"event,notnull" json:"event"`
	Date       time.Time `bun:"date,notnull" json:"date"`
	Seat       string    `bun:"seat,notnull" json:"seat"`
	Section    string    `bun:"section" json:"section,omitempty"`
	RowNumber  int       `bun:"row_number" json:"row_number,omitempty"`
	SeatNumber int       `bun:"seat_number" json:"seat_number,omitempty"`
	Price      float64   `bun:"price" json:"price"`
	Status     string    `bun:"status,notnull" json:"status"`
	BuyerEmail string    `bun:"buyer_email,nullzero" json:"buyer_email,omitempty"`
	SoldAt     time.Time `bun:"sold_at,nullzero" json:"sold_at,omitempty"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// UserTicket is the purchase receipt row. Event, date, seat, section and
// price are copied from the ticket at purchase time, not referenced live.
type UserTicket struct {
	bun.BaseModel `bun:"table:ticketUser"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"id_user,notnull" json:"id_user"`
	TicketID  int64     `bun:"ticket_id,nullzero" json:"ticket_id,omitempty"`
	Event     string    `bun:"event,notnull" json:"event"`
	Date      time.Time `bun:"date,notnull" json:"date"`
	Seat      string    `bun:"seat,notnull" json:"seat"`
	Section   string    `bun:"section" json:"section,omitempty"`
	Price     float64   `bun:"price" json:"price"`
	CreatedAt time.Time `bun:"created_at,nullzero" json:"created_at,omitempty"`
}

// GenerateTicketsRequest is the operator batch-creation form: one section
// prefix, N numbered seats for a match.
type GenerateTicketsRequest struct {
	MatchID  int64  `json:"match_id"`
	Seat     string `json:"seat"`
	Quantity int    `json:"quantity"`
}

type PurchaseRequest struct {
	TicketID int64 `json:"ticket_id"`
}

type SellRequest struct {
	TicketID   int64  `json:"ticket_id"`
	BuyerEmail string `json:"buyer_email"`
}
