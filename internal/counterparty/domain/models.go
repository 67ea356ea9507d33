package domain

import "github.com/bwmarrin/snowflake"

// Counterparty is the forwarding party referenced by applications.
type Counterparty struct {
	ID   snowflake.ID `gorm:"primaryKey" json:"id"`
	Name string       `gorm:"size:255;not null;uniqueIndex" json:"name"`
}

func (Counterparty) TableName() string {
	return "counterparties"
}
