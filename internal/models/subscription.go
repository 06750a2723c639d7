package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Subscription is a paid affiliation with one team for a fixed plan and
// period. The store keeps the legacy French column names.
type Subscription struct {
	bun.BaseModel `bun:"table:Abonnement"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"id_user,notnull" json:"id_user"`
	Team      string    `bun:"equipe,notnull" json:"equipe"`
	PlanName  string    `bun:"plan_name,notnull" json:"plan_name"`
	Price     float64   `bun:"price" json:"price"`
	StartDate time.Time `bun:"start_date,notnull" json:"start_date"`
	EndDate   time.Time `bun:"end_date,notnull" json:"end_date"`
}

type Plan struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type SubscribeRequest struct {
	UserID int64  `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Nom    string `json:"nom,omitempty"`
	Prenom string `json:"prenom,omitempty"`
	Team   string `json:"equipe"`
	PlanID int64  `json:"plan_id"`
	// CardToken, when present, charges the plan price before activating.
	CardToken string `json:"card_token,omitempty"`
}
