package models

import "github.com/uptrace/bun"

// User is an account row. Password holds a bcrypt hash, never plain text.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID       int64  `bun:"id,pk" json:"id"`
	Nom      string `bun:"nom" json:"nom"`
	Prenom   string `bun:"prenom" json:"prenom"`
	Email    string `bun:"email,notnull,unique" json:"email"`
	Password string `bun:"password" json:"-"`
	IsAdmin  bool   `bun:"isadmin" json:"isadmin"`
}

type SignUpRequest struct {
	Nom      string `json:"nom"`
	Prenom   string `json:"prenom"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the signed-in state: a server-side session id bound to a user,
// carried by the client as a JWT. Replaces the legacy single-row
// "isconnected" flag in the users table.
type Session struct {
	ID      string `json:"session_id"`
	UserID  int64  `json:"user_id"`
	IsAdmin bool   `json:"isadmin"`
	Token   string `json:"token"`
}

type ProfileUpdate struct {
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Email  string `json:"email"`
}
