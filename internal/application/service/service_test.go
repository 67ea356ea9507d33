package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/interrail/forwarding/internal/application/document"
	"github.com/interrail/forwarding/internal/application/domain"
	authdomain "github.com/interrail/forwarding/internal/auth/domain"
	"github.com/interrail/forwarding/internal/config"
	counterpartydomain "github.com/interrail/forwarding/internal/counterparty/domain"
	paymentcodedomain "github.com/interrail/forwarding/internal/paymentcode/domain"
	"github.com/interrail/forwarding/internal/providers/pdf"
	"github.com/interrail/forwarding/internal/storage"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
	"github.com/interrail/forwarding/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubConverter struct {
	fail  bool
	calls int
}

func (s *stubConverter) Convert(ctx context.Context, doc pdf.Document) ([]byte, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("converter unavailable")
	}
	return []byte("%PDF-1.4 stub"), nil
}

type lifecycleFixture struct {
	db        *gorm.DB
	node      *snowflake.Node
	svc       domain.Service
	store     *storage.MediaStore
	converter *stubConverter
	mediaRoot string
	forwarder counterpartydomain.Counterparty
	territory territorydomain.Territory
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&territorydomain.Territory{},
		&counterpartydomain.Counterparty{},
		&authdomain.User{},
		&domain.Application{},
		&paymentcodedomain.PaymentCode{},
	))

	workDir := t.TempDir()
	templatePath := filepath.Join(workDir, "application_template.docx")
	require.NoError(t, os.WriteFile(templatePath, []byte("Заявка {{.order_number}} {{.sending_type}} {{.territories}}"), 0o644))

	mediaRoot := filepath.Join(workDir, "media")
	holder := config.NewStaticDocumentConfigHolder(config.DocumentConfig{
		TemplatePath:     templatePath,
		MediaRoot:        mediaRoot,
		Provider:         config.PDFProviderRemote,
		ConverterURL:     "http://converter.invalid/convert",
		ConverterTimeout: time.Second,
	})

	log := zap.NewNop()
	store := storage.NewMediaStore(holder, log)
	converter := &stubConverter{}
	generator := document.NewGenerator(document.GeneratorParam{
		Holder:   holder,
		Provider: converter,
		Store:    store,
		Log:      log,
	})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &lifecycleFixture{
		db:        conn,
		node:      node,
		store:     store,
		converter: converter,
		mediaRoot: mediaRoot,
		svc: New(ServiceParam{
			DB:        conn,
			Log:       log,
			GenID:     node,
			Generator: generator,
			Store:     store,
		}),
		forwarder: counterpartydomain.Counterparty{ID: node.Generate(), Name: "ООО Экспедитор"},
		territory: territorydomain.Territory{ID: node.Generate(), Name: "Беларусь"},
	}
	require.NoError(t, conn.Create(&f.forwarder).Error)
	require.NoError(t, conn.Create(&f.territory).Error)
	return f
}

func (f *lifecycleFixture) createRequest() domain.CreateRequest {
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return domain.CreateRequest{
		Number:       "INT-" + f.node.Generate().String(),
		SendingType:  domain.SendingTypeSingle,
		Quantity:     3,
		Date:         &date,
		TerritoryIDs: []snowflake.ID{f.territory.ID},
		ForwarderID:  f.forwarder.ID,
		Cargo:        "Пиломатериалы",
		Weight:       decimal.RequireFromString("64.50"),
		AgreedRate:   decimal.RequireFromString("1200.00"),
	}
}

func TestCreateGeneratesArtifact(t *testing.T) {
	f := newLifecycleFixture(t)

	app, err := f.svc.Create(context.Background(), f.createRequest())
	require.NoError(t, err)
	require.NotEmpty(t, app.RequestFile)
	require.True(t, f.store.Exists(app.RequestFile))
	require.Equal(t, 1, f.converter.calls)

	stored, err := f.svc.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.Equal(t, app.RequestFile, stored.RequestFile)
	require.Len(t, stored.Territories, 1)
	require.NotNil(t, stored.Forwarder)
}

func TestCreateCompensatesOnGenerationFailure(t *testing.T) {
	f := newLifecycleFixture(t)
	f.converter.fail = true

	_, err := f.svc.Create(context.Background(), f.createRequest())
	require.ErrorIs(t, err, domain.ErrDocumentGeneration)

	// The compensating delete removes the committed row.
	var count int64
	require.NoError(t, f.db.Model(&domain.Application{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestCreateRejectsUnknownForwarder(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.createRequest()
	req.ForwarderID = f.node.Generate()
	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidForwarder)
	require.Equal(t, 0, f.converter.calls)
}

func TestCreateRejectsUnknownTerritory(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.createRequest()
	req.TerritoryIDs = []snowflake.ID{f.node.Generate()}
	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidTerritory)
}

func TestCreateRejectsBadSendingType(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.createRequest()
	req.SendingType = "teleport"
	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidSendingType)
}

func TestUpdateSwapsArtifact(t *testing.T) {
	f := newLifecycleFixture(t)

	app, err := f.svc.Create(context.Background(), f.createRequest())
	require.NoError(t, err)
	oldArtifact := app.RequestFile

	cargo := "Металлопрокат"
	updated, err := f.svc.Update(context.Background(), app.ID, domain.UpdateRequest{
		Cargo: &cargo,
	})
	require.NoError(t, err)
	require.Equal(t, cargo, updated.Cargo)
	require.NotEmpty(t, updated.RequestFile)
	require.NotEqual(t, oldArtifact, updated.RequestFile)
	require.True(t, f.store.Exists(updated.RequestFile))
	require.False(t, f.store.Exists(oldArtifact))
}

func TestUpdateAbortsFieldChangesOnGenerationFailure(t *testing.T) {
	f := newLifecycleFixture(t)

	app, err := f.svc.Create(context.Background(), f.createRequest())
	require.NoError(t, err)

	f.converter.fail = true
	cargo := "Уголь"
	_, err = f.svc.Update(context.Background(), app.ID, domain.UpdateRequest{
		Cargo: &cargo,
	})
	require.ErrorIs(t, err, domain.ErrDocumentGeneration)

	stored, err := f.svc.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.Equal(t, "Пиломатериалы", stored.Cargo)
	require.Equal(t, app.RequestFile, stored.RequestFile)
	require.True(t, f.store.Exists(stored.RequestFile))
}

func TestUpdateRemovesOrphanArtifactOnRollback(t *testing.T) {
	f := newLifecycleFixture(t)

	app, err := f.svc.Create(context.Background(), f.createRequest())
	require.NoError(t, err)
	oldArtifact := app.RequestFile

	// Reject the artifact path swap so the transaction rolls back
	// after the new PDF has already been written to the media store.
	require.NoError(t, f.db.Exec(`CREATE TRIGGER reject_artifact_swap
		BEFORE UPDATE OF request_file ON applications
		WHEN NEW.request_file <> OLD.request_file
		BEGIN SELECT RAISE(ABORT, 'request_file locked'); END`).Error)

	cargo := "Щебень"
	_, err = f.svc.Update(context.Background(), app.ID, domain.UpdateRequest{
		Cargo: &cargo,
	})
	require.Error(t, err)

	stored, err := f.svc.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.Equal(t, "Пиломатериалы", stored.Cargo)
	require.Equal(t, oldArtifact, stored.RequestFile)
	require.True(t, f.store.Exists(oldArtifact))

	// The rolled-back generation leaves no second PDF behind.
	entries, err := os.ReadDir(filepath.Join(f.mediaRoot, "applications"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestUpdateUnknownApplication(t *testing.T) {
	f := newLifecycleFixture(t)

	cargo := "Зерно"
	_, err := f.svc.Update(context.Background(), f.node.Generate(), domain.UpdateRequest{
		Cargo: &cargo,
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteRemovesCodesAndArtifact(t *testing.T) {
	f := newLifecycleFixture(t)

	app, err := f.svc.Create(context.Background(), f.createRequest())
	require.NoError(t, err)
	artifact := app.RequestFile

	territoryID := f.territory.ID
	require.NoError(t, f.db.Create(&paymentcodedomain.PaymentCode{
		ID:            f.node.Generate(),
		ApplicationID: app.ID,
		Number:        "1001",
		TerritoryID:   &territoryID,
		CodeStatus:    paymentcodedomain.StatusChecking,
	}).Error)

	require.NoError(t, f.svc.Delete(context.Background(), app.ID))

	_, err = f.svc.GetByID(context.Background(), app.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.False(t, f.store.Exists(artifact))
}
