package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/interrail/forwarding/internal/auth/domain"
	counterpartydomain "github.com/interrail/forwarding/internal/counterparty/domain"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
	"github.com/shopspring/decimal"
)

// Sending type codes and their document labels.
const (
	SendingTypeSingle     = "single"
	SendingTypeBlockTrain = "block_train"
)

const (
	LoadingTypeWagon     = "wagon"
	LoadingTypeContainer = "container"
)

var SendingTypeLabels = map[string]string{
	SendingTypeSingle:     "Одиночный",
	SendingTypeBlockTrain: "КП",
}

var LoadingTypeLabels = map[string]string{
	LoadingTypeWagon:     "Wagon",
	LoadingTypeContainer: "Container",
}

var ContainerTypeLabels = map[string]string{
	"20":   "20",
	"20HC": "20HC",
	"40":   "40",
	"40HC": "40HC",
	"45":   "45",
}

// PaidTelegramPhrase is inserted into the paperwork when the flag is set.
const PaidTelegramPhrase = "Прошу также предоставить проплатную телеграмму"

// Application is a shipment request aggregating routing, cargo and
// commercial terms. RequestFile holds the relative path of the generated
// paperwork artifact; it is either empty or points to a valid artifact.
type Application struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Number      string       `gorm:"size:100;uniqueIndex" json:"number"`
	RequestFile string       `gorm:"size:255" json:"request_file"`
	SendingType string       `gorm:"size:100" json:"sending_type"`
	Quantity    int          `gorm:"not null;default:1" json:"quantity"`
	Date        *time.Time   `json:"date"`

	Territories []territorydomain.Territory `gorm:"many2many:application_territories" json:"territories,omitempty"`

	ForwarderID snowflake.ID                    `gorm:"not null;index" json:"forwarder_id"`
	Forwarder   *counterpartydomain.Counterparty `gorm:"foreignKey:ForwarderID" json:"forwarder,omitempty"`

	PaidTelegram         bool            `json:"paid_telegram"`
	Departure            string          `json:"departure"`
	DepartureCode        string          `json:"departure_code"`
	Destination          string          `json:"destination"`
	DestinationCode      string          `json:"destination_code"`
	Cargo                string          `json:"cargo"`
	HSCode               string          `json:"hs_code"`
	ETCNG                string          `json:"etcng"`
	LoadingType          string          `gorm:"size:100;not null;default:wagon" json:"loading_type"`
	Weight               decimal.Decimal `gorm:"type:decimal(10,2)" json:"weight"`
	ContainerType        string          `gorm:"size:255" json:"container_type"`
	RollingStock1        string          `json:"rolling_stock_1"`
	RollingStock2        string          `json:"rolling_stock_2"`
	ConditionsOfCarriage string          `json:"conditions_of_carriage"`
	AgreedRate           decimal.Decimal `gorm:"type:decimal(10,2)" json:"agreed_rate"`
	AddCharges           decimal.Decimal `gorm:"type:decimal(10,2)" json:"add_charges"`
	BorderCrossing       string          `json:"border_crossing"`
	ContainersOrWagons   string          `json:"containers_or_wagons"`
	Period               string          `json:"period"`
	Shipper              string          `json:"shipper"`
	Consignee            string          `json:"consignee"`
	DepartureCountry     string          `json:"departure_country"`
	DestinationCountry   string          `json:"destination_country"`

	ManagerID *snowflake.ID   `gorm:"index" json:"manager_id,omitempty"`
	Manager   *authdomain.User `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`

	Comment   string    `json:"comment"`
	CreatedAt time.Time `gorm:"not null" json:"created"`
	UpdatedAt time.Time `gorm:"not null" json:"modified"`
}

func (Application) TableName() string {
	return "applications"
}

func ValidSendingType(value string) bool {
	if value == "" {
		return true
	}
	_, ok := SendingTypeLabels[value]
	return ok
}

func ValidLoadingType(value string) bool {
	_, ok := LoadingTypeLabels[value]
	return ok
}

func ValidContainerType(value string) bool {
	if value == "" {
		return true
	}
	_, ok := ContainerTypeLabels[value]
	return ok
}
