package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
	"github.com/shopspring/decimal"
)

// Code status lifecycle values. New codes always start in Checking;
// transitions happen in back-office workflows, never in the allocator.
const (
	StatusChecking  = "Checking"
	StatusUsed      = "Used"
	StatusCanceled  = "Canceled"
	StatusCompleted = "Completed"
)

var StatusLabels = map[string]string{
	StatusChecking:  "Checking",
	StatusUsed:      "Used",
	StatusCanceled:  "Canceled",
	StatusCompleted: "Completed",
}

// PaymentCode is one settlement code issued against an application.
// Number keeps its zero padding, so it is stored as a string.
type PaymentCode struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ApplicationID snowflake.ID `gorm:"not null;index;constraint:OnDelete:CASCADE" json:"application_id"`
	Number        string       `gorm:"size:100;not null" json:"number"`

	TerritoryID *snowflake.ID              `gorm:"index" json:"territory_id,omitempty"`
	Territory   *territorydomain.Territory `gorm:"foreignKey:TerritoryID;constraint:OnDelete:SET NULL" json:"territory,omitempty"`

	CodeStatus string     `gorm:"size:100;not null;default:Checking" json:"code_status"`
	Date       *time.Time `json:"date"`

	SMGSCode string     `gorm:"size:100" json:"smgs_code"`
	SMGSDate *time.Time `json:"smgs_date"`
	SMGSFile string     `gorm:"size:255" json:"smgs_file"`

	Weight          decimal.Decimal `gorm:"type:decimal(10,2)" json:"weight"`
	WagonNumber     string          `gorm:"size:100" json:"wagon_number"`
	ContainerNumber string          `gorm:"size:100" json:"container_number"`
	Rate            decimal.Decimal `gorm:"type:decimal(10,2)" json:"rate"`
	AddCharges      decimal.Decimal `gorm:"type:decimal(10,2)" json:"add_charges"`

	Comment   string    `json:"comment"`
	CreatedAt time.Time `gorm:"not null" json:"created"`
	UpdatedAt time.Time `gorm:"not null" json:"modified"`
}

func (PaymentCode) TableName() string {
	return "payment_codes"
}
