package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	applicationdomain "github.com/interrail/forwarding/internal/application/domain"
	"github.com/interrail/forwarding/internal/paymentcode/domain"
	counterpartydomain "github.com/interrail/forwarding/internal/counterparty/domain"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
	"github.com/interrail/forwarding/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type allocatorFixture struct {
	db        *gorm.DB
	node      *snowflake.Node
	allocator domain.Allocator
	territory territorydomain.Territory
	forwarder counterpartydomain.Counterparty
}

func newAllocatorFixture(t *testing.T) *allocatorFixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&territorydomain.Territory{},
		&counterpartydomain.Counterparty{},
		&applicationdomain.Application{},
		&domain.PaymentCode{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &allocatorFixture{
		db:   conn,
		node: node,
		allocator: New(ServiceParam{
			DB:    conn,
			Log:   zap.NewNop(),
			GenID: node,
		}),
		territory: territorydomain.Territory{ID: node.Generate(), Name: "Казахстан"},
		forwarder: counterpartydomain.Counterparty{ID: node.Generate(), Name: "ТОО Транзит"},
	}
	require.NoError(t, conn.Create(&f.territory).Error)
	require.NoError(t, conn.Create(&f.forwarder).Error)
	return f
}

func (f *allocatorFixture) createApplication(t *testing.T, quantity int, territories ...territorydomain.Territory) applicationdomain.Application {
	t.Helper()

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	app := applicationdomain.Application{
		ID:          f.node.Generate(),
		Number:      "N-" + f.node.Generate().String(),
		Quantity:    quantity,
		Date:        &date,
		ForwarderID: f.forwarder.ID,
		LoadingType: applicationdomain.LoadingTypeWagon,
		Territories: territories,
	}
	require.NoError(t, f.db.Create(&app).Error)
	return app
}

func (f *allocatorFixture) codeCount(t *testing.T, appID snowflake.ID) int64 {
	t.Helper()

	var count int64
	require.NoError(t, f.db.Model(&domain.PaymentCode{}).
		Where("application_id = ?", appID).Count(&count).Error)
	return count
}

func TestAllocateSequentialNumbers(t *testing.T) {
	f := newAllocatorFixture(t)
	app := f.createApplication(t, 5, f.territory)

	codes, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "1001",
		EndRange:      "1005",
		TerritoryID:   f.territory.ID,
	})
	require.NoError(t, err)
	require.Len(t, codes, 5)

	for i, code := range codes {
		require.Equal(t, []string{"1001", "1002", "1003", "1004", "1005"}[i], code.Number)
		require.Equal(t, domain.StatusChecking, code.CodeStatus)
		require.Equal(t, app.ID, code.ApplicationID)
		require.NotNil(t, code.Date)
	}
	require.EqualValues(t, 5, f.codeCount(t, app.ID))
}

func TestAllocateZeroPadding(t *testing.T) {
	f := newAllocatorFixture(t)
	app := f.createApplication(t, 5, f.territory)

	codes, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "0008",
		EndRange:      "0010",
		TerritoryID:   f.territory.ID,
	})
	require.NoError(t, err)
	require.Len(t, codes, 3)
	require.Equal(t, "0008", codes[0].Number)
	require.Equal(t, "0009", codes[1].Number)
	require.Equal(t, "0010", codes[2].Number)
}

func TestAllocateCapacityExceeded(t *testing.T) {
	f := newAllocatorFixture(t)
	app := f.createApplication(t, 5, f.territory)

	_, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "1001",
		EndRange:      "1005",
		TerritoryID:   f.territory.ID,
	})
	require.NoError(t, err)

	_, err = f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "1006",
		EndRange:      "1006",
		TerritoryID:   f.territory.ID,
	})
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	require.EqualValues(t, 5, f.codeCount(t, app.ID))
}

func TestAllocateCapacityScalesWithTerritories(t *testing.T) {
	f := newAllocatorFixture(t)

	second := territorydomain.Territory{ID: f.node.Generate(), Name: "Россия"}
	require.NoError(t, f.db.Create(&second).Error)
	app := f.createApplication(t, 2, f.territory, second)

	// Two territories and quantity 2 allow four codes.
	_, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "2001",
		EndRange:      "2004",
		TerritoryID:   second.ID,
	})
	require.NoError(t, err)

	_, err = f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "2005",
		EndRange:      "2005",
		TerritoryID:   f.territory.ID,
	})
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	require.EqualValues(t, 4, f.codeCount(t, app.ID))
}

func TestAllocateRangeOrderRejected(t *testing.T) {
	f := newAllocatorFixture(t)
	app := f.createApplication(t, 10, f.territory)

	_, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "1005",
		EndRange:      "1001",
		TerritoryID:   f.territory.ID,
	})
	require.ErrorIs(t, err, domain.ErrRangeOrder)
	require.EqualValues(t, 0, f.codeCount(t, app.ID))
}

func TestAllocateRangeOrderComparesStrings(t *testing.T) {
	f := newAllocatorFixture(t)
	app := f.createApplication(t, 10, f.territory)

	// "999" sorts after "1000" as a string even though 999 < 1000.
	_, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "999",
		EndRange:      "1000",
		TerritoryID:   f.territory.ID,
	})
	require.ErrorIs(t, err, domain.ErrRangeOrder)
	require.EqualValues(t, 0, f.codeCount(t, app.ID))
}

func TestAllocateEmptyNumericSpan(t *testing.T) {
	f := newAllocatorFixture(t)
	app := f.createApplication(t, 10, f.territory)

	// "1005" sorts before "999" as a string, so the order check lets
	// the pair through while the numeric walk covers nothing.
	codes, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "1005",
		EndRange:      "999",
		TerritoryID:   f.territory.ID,
	})
	require.NoError(t, err)
	require.Empty(t, codes)
	require.EqualValues(t, 0, f.codeCount(t, app.ID))
}

func TestAllocateUnknownTerritory(t *testing.T) {
	f := newAllocatorFixture(t)
	app := f.createApplication(t, 5, f.territory)

	_, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "1001",
		EndRange:      "1002",
		TerritoryID:   f.node.Generate(),
	})
	require.ErrorIs(t, err, domain.ErrTerritoryNotFound)
	require.EqualValues(t, 0, f.codeCount(t, app.ID))
}

func TestAllocateUnknownApplication(t *testing.T) {
	f := newAllocatorFixture(t)

	_, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: f.node.Generate(),
		StartRange:    "1001",
		EndRange:      "1002",
		TerritoryID:   f.territory.ID,
	})
	require.ErrorIs(t, err, domain.ErrApplicationNotFound)
}

func TestAllocateNonNumericRange(t *testing.T) {
	f := newAllocatorFixture(t)
	app := f.createApplication(t, 5, f.territory)

	_, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "abc",
		EndRange:      "1002",
		TerritoryID:   f.territory.ID,
	})
	require.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestListByApplicationOrdersByNumber(t *testing.T) {
	f := newAllocatorFixture(t)
	app := f.createApplication(t, 10, f.territory)

	_, err := f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "1003",
		EndRange:      "1004",
		TerritoryID:   f.territory.ID,
	})
	require.NoError(t, err)
	_, err = f.allocator.Allocate(context.Background(), domain.AllocateRequest{
		ApplicationID: app.ID,
		StartRange:    "1001",
		EndRange:      "1002",
		TerritoryID:   f.territory.ID,
	})
	require.NoError(t, err)

	codes, err := f.allocator.ListByApplication(context.Background(), app.ID)
	require.NoError(t, err)
	require.Len(t, codes, 4)
	require.Equal(t, "1001", codes[0].Number)
	require.Equal(t, "1004", codes[3].Number)
	require.NotNil(t, codes[0].Territory)
	require.Equal(t, f.territory.Name, codes[0].Territory.Name)
}
