package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/interrail/forwarding/internal/application/document"
	applicationdomain "github.com/interrail/forwarding/internal/application/domain"
	applicationservice "github.com/interrail/forwarding/internal/application/service"
	authdomain "github.com/interrail/forwarding/internal/auth/domain"
	authservice "github.com/interrail/forwarding/internal/auth/service"
	"github.com/interrail/forwarding/internal/config"
	counterpartydomain "github.com/interrail/forwarding/internal/counterparty/domain"
	counterpartyservice "github.com/interrail/forwarding/internal/counterparty/service"
	paymentcodedomain "github.com/interrail/forwarding/internal/paymentcode/domain"
	paymentcodeservice "github.com/interrail/forwarding/internal/paymentcode/service"
	"github.com/interrail/forwarding/internal/providers/pdf"
	"github.com/interrail/forwarding/internal/storage"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
	territoryservice "github.com/interrail/forwarding/internal/territory/service"
	"github.com/interrail/forwarding/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubConverter struct{}

func (stubConverter) Convert(ctx context.Context, doc pdf.Document) ([]byte, error) {
	return []byte("%PDF stub"), nil
}

type serverFixture struct {
	t         *testing.T
	engine    *gin.Engine
	db        *gorm.DB
	node      *snowflake.Node
	token     string
	territory territorydomain.Territory
	forwarder counterpartydomain.Counterparty
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&territorydomain.Territory{},
		&counterpartydomain.Counterparty{},
		&authdomain.User{},
		&authdomain.Session{},
		&applicationdomain.Application{},
		&paymentcodedomain.PaymentCode{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	workDir := t.TempDir()
	templatePath := filepath.Join(workDir, "template.docx")
	require.NoError(t, os.WriteFile(templatePath, []byte("Заявка {{.order_number}}"), 0o644))

	holder := config.NewStaticDocumentConfigHolder(config.DocumentConfig{
		TemplatePath:     templatePath,
		MediaRoot:        filepath.Join(workDir, "media"),
		Provider:         config.PDFProviderRemote,
		ConverterURL:     "http://converter.invalid/convert",
		ConverterTimeout: time.Second,
	})

	log := zap.NewNop()
	cfg := config.Config{SessionTTLHours: 1, HTTPAddr: ":0"}
	store := storage.NewMediaStore(holder, log)
	generator := document.NewGenerator(document.GeneratorParam{
		Holder:   holder,
		Provider: stubConverter{},
		Store:    store,
		Log:      log,
	})

	authSvc := authservice.New(authservice.ServiceParam{Cfg: cfg, DB: conn, Log: log, GenID: node})
	territorySvc := territoryservice.New(territoryservice.ServiceParam{DB: conn, Log: log, GenID: node})
	counterpartySvc := counterpartyservice.New(counterpartyservice.ServiceParam{DB: conn, Log: log, GenID: node})
	applicationSvc := applicationservice.New(applicationservice.ServiceParam{
		DB: conn, Log: log, GenID: node, Generator: generator, Store: store,
	})
	allocator := paymentcodeservice.New(paymentcodeservice.ServiceParam{DB: conn, Log: log, GenID: node})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())
	NewServer(ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		DB:              conn,
		Log:             log,
		GenID:           node,
		AuthSvc:         authSvc,
		TerritorySvc:    territorySvc,
		CounterpartySvc: counterpartySvc,
		ApplicationSvc:  applicationSvc,
		Allocator:       allocator,
	})

	ctx := context.Background()
	_, err = authSvc.Register(ctx, authdomain.RegisterRequest{
		Username: "operator",
		Password: "operator-pass",
	})
	require.NoError(t, err)
	login, err := authSvc.Login(ctx, authdomain.LoginRequest{
		Username: "operator",
		Password: "operator-pass",
	})
	require.NoError(t, err)

	f := &serverFixture{
		t:      t,
		engine: engine,
		db:     conn,
		node:   node,
		token:  login.RawToken,
		territory: territorydomain.Territory{ID: node.Generate(), Name: "Казахстан"},
		forwarder: counterpartydomain.Counterparty{ID: node.Generate(), Name: "ТОО Транзит"},
	}
	require.NoError(t, conn.Create(&f.territory).Error)
	require.NoError(t, conn.Create(&f.forwarder).Error)
	return f
}

func (f *serverFixture) do(method, path string, body *bytes.Buffer, contentType string, authed bool) *httptest.ResponseRecorder {
	f.t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func (f *serverFixture) doJSON(method, path string, payload any, authed bool) *httptest.ResponseRecorder {
	f.t.Helper()

	var body bytes.Buffer
	require.NoError(f.t, json.NewEncoder(&body).Encode(payload))
	return f.do(method, path, &body, "application/json", authed)
}

func (f *serverFixture) createApplication(extra map[string]string) snowflake.ID {
	f.t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"number":       "INT-" + f.node.Generate().String(),
		"sending_type": applicationdomain.SendingTypeSingle,
		"quantity":     "5",
		"forwarder":    f.forwarder.ID.String(),
		"territories":  f.territory.ID.String(),
		"cargo":        "Пиломатериалы",
	}
	for k, v := range extra {
		fields[k] = v
	}
	for k, v := range fields {
		require.NoError(f.t, writer.WriteField(k, v))
	}
	require.NoError(f.t, writer.Close())

	rec := f.do(http.MethodPost, "/application/create/", &body, writer.FormDataContentType(), true)
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID snowflake.ID `json:"id"`
	}
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created.ID
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodGet, "/territories/", nil, "", false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, errorMessage(t, rec))
}

func TestCreateApplicationReturnsArtifact(t *testing.T) {
	f := newServerFixture(t)

	id := f.createApplication(nil)

	rec := f.do(http.MethodGet, fmt.Sprintf("/application/%d/detail/", id), nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		RequestFile string            `json:"request_file"`
		Codes       []json.RawMessage `json:"codes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.NotEmpty(t, detail.RequestFile)
	require.Empty(t, detail.Codes)
}

func TestCreateApplicationRejectsReadOnlyField(t *testing.T) {
	f := newServerFixture(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("number", "INT-1"))
	require.NoError(t, writer.WriteField("forwarder", f.forwarder.ID.String()))
	require.NoError(t, writer.WriteField("request_file", "applications/spoofed.pdf"))
	require.NoError(t, writer.Close())

	rec := f.do(http.MethodPost, "/application/create/", &body, writer.FormDataContentType(), true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, errorMessage(t, rec), "request_file")
}

func TestAllocateCodesEndpoint(t *testing.T) {
	f := newServerFixture(t)
	id := f.createApplication(nil)

	rec := f.doJSON(http.MethodPost, fmt.Sprintf("/code_range/%d/create/", id), gin.H{
		"start_range":  "1001",
		"end_range":    "1005",
		"territory_id": int64(f.territory.ID),
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Empty(t, rec.Body.String())

	detail := f.do(http.MethodGet, fmt.Sprintf("/application/%d/detail/", id), nil, "", true)
	var payload struct {
		Codes []struct {
			Number    string `json:"number"`
			Territory *struct {
				Name string `json:"name"`
			} `json:"territory"`
		} `json:"codes"`
	}
	require.NoError(t, json.Unmarshal(detail.Body.Bytes(), &payload))
	require.Len(t, payload.Codes, 5)
	require.Equal(t, "1001", payload.Codes[0].Number)
	require.NotNil(t, payload.Codes[0].Territory)
	require.Equal(t, f.territory.Name, payload.Codes[0].Territory.Name)
}

func TestAllocateCodesCapacityExceeded(t *testing.T) {
	f := newServerFixture(t)
	id := f.createApplication(nil)

	rec := f.doJSON(http.MethodPost, fmt.Sprintf("/code_range/%d/create/", id), gin.H{
		"start_range":  "1001",
		"end_range":    "1006",
		"territory_id": int64(f.territory.ID),
	}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, paymentcodedomain.ErrCapacityExceeded.Error(), errorMessage(t, rec))
}

func TestUpdateApplicationUnknownID(t *testing.T) {
	f := newServerFixture(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("cargo", "Зерно"))
	require.NoError(t, writer.Close())

	rec := f.do(http.MethodPut, fmt.Sprintf("/application/%d/update/", f.node.Generate()), &body, writer.FormDataContentType(), true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateApplicationChangesFields(t *testing.T) {
	f := newServerFixture(t)
	id := f.createApplication(nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("cargo", "Металлопрокат"))
	require.NoError(t, writer.Close())

	rec := f.do(http.MethodPut, fmt.Sprintf("/application/%d/update/", id), &body, writer.FormDataContentType(), true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated struct {
		Cargo string `json:"cargo"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, "Металлопрокат", updated.Cargo)
}

func TestTerritoryCRUD(t *testing.T) {
	f := newServerFixture(t)

	rec := f.doJSON(http.MethodPost, "/territories/", gin.H{"name": "Монголия"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created territorydomain.Territory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = f.doJSON(http.MethodPost, "/territories/", gin.H{"name": "Монголия"}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/territories/"+created.ID.String()+"/", nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/territories/999/", nil, "", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	f := newServerFixture(t)

	rec := f.doJSON(http.MethodPost, "/auth/login/", gin.H{
		"username": "operator",
		"password": "operator-pass",
	}, false)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Token)

	rec = f.doJSON(http.MethodPost, "/auth/login/", gin.H{
		"username": "operator",
		"password": "bad-pass",
	}, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
