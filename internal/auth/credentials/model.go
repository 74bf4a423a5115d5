package credentials

import "time"

type Credential struct {
	ID           string
	AccountID    string
	PasswordHash string
	HashVersion  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
