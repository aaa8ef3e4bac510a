package companies

import (
	"time"
)

// Company is an empresa: the tenant every accounting record hangs off.
type Company struct {
	ID        int64     `json:"id"`
	NIT       string    `json:"nit"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
