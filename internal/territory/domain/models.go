package domain

import "github.com/bwmarrin/snowflake"

// Territory is a named administrative zone scoping allocation capacity.
type Territory struct {
	ID   snowflake.ID `gorm:"primaryKey" json:"id"`
	Name string       `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

func (Territory) TableName() string {
	return "territories"
}
