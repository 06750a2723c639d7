package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Match struct {
	bun.BaseModel `bun:"table:matches"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	HomeTeam    string    `bun:"home_team,notnull" json:"home_team"`
	AwayTeam    string    `bun:"away_team,notnull" json:"away_team"`
	Date        time.Time `bun:"date,notnull" json:"date"`
	Competition string    `bun:"competition" json:"competition,omitempty"`
	StadiumID   int64     `bun:"stadium_id,nullzero" json:"stadium_id,omitempty"`
}

type Stadium struct {
	bun.BaseModel `bun:"table:stadiums"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,notnull" json:"name"`
	City     string `bun:"city" json:"city,omitempty"`
	Capacity int    `bun:"capacity" json:"capacity,omitempty"`
}

// MatchWithStadium is the listing shape: a match joined with its venue name.
type MatchWithStadium struct {
	Match
	StadiumName string `bun:"stadium_name" json:"stadium_name,omitempty"`
}
