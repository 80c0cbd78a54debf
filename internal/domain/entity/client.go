package entity

import "time"

// Client representa un cliente. Las ventas pueden ser anónimas (sin cliente).
type Client struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
