package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/interrail/forwarding/internal/application/domain"
	"github.com/interrail/forwarding/internal/config"
	"github.com/interrail/forwarding/internal/providers/pdf"
	"github.com/interrail/forwarding/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type GeneratorParam struct {
	fx.In

	Holder   *config.DocumentConfigHolder
	Provider pdf.Provider
	Store    *storage.MediaStore
	Log      *zap.Logger
}

// Generator renders the application request form and produces the PDF
// artifact. The returned path is relative to the media root.
type Generator struct {
	holder   *config.DocumentConfigHolder
	provider pdf.Provider
	store    *storage.MediaStore
	log      *zap.Logger
}

func NewGenerator(p GeneratorParam) *Generator {
	return &Generator{
		holder:   p.Holder,
		provider: p.Provider,
		store:    p.Store,
		log:      p.Log,
	}
}

var Module = fx.Module("application.document",
	fx.Provide(NewGenerator),
)

// Generate runs the full pipeline: render the template to a temporary
// office document, convert it to PDF and persist the result under
// applications/. The temporary file is removed on every exit path.
func (g *Generator) Generate(ctx context.Context, app *domain.Application) (string, error) {
	cfg := g.holder.Get()

	data := buildContext(app)

	tmpl, err := template.ParseFiles(cfg.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocumentGeneration, err)
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocumentGeneration, err)
	}

	stamp := time.Now().Format("20060102_150405")
	suffix := uuid.NewString()[:8]
	base := fmt.Sprintf("application_%d_%s_%s", app.ID, stamp, suffix)

	tempPath, err := g.store.TempPath(base + ".docx")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocumentGeneration, err)
	}
	if err := os.WriteFile(tempPath, rendered.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocumentGeneration, err)
	}
	defer os.Remove(tempPath)

	pdfBytes, err := g.provider.Convert(ctx, pdf.Document{
		Name:       base,
		SourcePath: tempPath,
		Title:      "Заявка на перевозку " + app.Number,
		Rows:       buildRows(data),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocumentGeneration, err)
	}

	relative := "applications/" + base + ".pdf"
	if err := g.store.Save(relative, pdfBytes); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocumentGeneration, err)
	}

	g.log.Info("application document generated",
		zap.Int64("application_id", int64(app.ID)),
		zap.String("artifact", relative),
	)
	return relative, nil
}

// buildContext flattens the application into template values. Enum
// codes go through their label tables, the telegram flag becomes a
// fixed phrase, territories are joined by comma.
func buildContext(app *domain.Application) map[string]string {
	date := ""
	if app.Date != nil {
		date = app.Date.Format("02.01.2006")
	}

	paidTelegram := ""
	if app.PaidTelegram {
		paidTelegram = domain.PaidTelegramPhrase
	}

	names := make([]string, 0, len(app.Territories))
	for _, t := range app.Territories {
		names = append(names, t.Name)
	}

	forwarder := ""
	if app.Forwarder != nil {
		forwarder = app.Forwarder.Name
	}

	manager := ""
	if app.Manager != nil {
		manager = app.Manager.Username
	}

	return map[string]string{
		"order_number":           app.Number,
		"date":                   date,
		"sending_type":           domain.SendingTypeLabels[app.SendingType],
		"quantity":               fmt.Sprintf("%d", app.Quantity),
		"departure":              app.Departure,
		"departure_code":         app.DepartureCode,
		"destination":            app.Destination,
		"destination_code":       app.DestinationCode,
		"cargo":                  app.Cargo,
		"hs_code":                app.HSCode,
		"etcng":                  app.ETCNG,
		"loading_type":           domain.LoadingTypeLabels[app.LoadingType],
		"weight":                 app.Weight.String(),
		"container_type":         domain.ContainerTypeLabels[app.ContainerType],
		"paid_telegram":          paidTelegram,
		"rolling_stock_1":        app.RollingStock1,
		"rolling_stock_2":        app.RollingStock2,
		"conditions_of_carriage": app.ConditionsOfCarriage,
		"agreed_rate":            app.AgreedRate.String(),
		"add_charges":            app.AddCharges.String(),
		"border_crossing":        app.BorderCrossing,
		"containers_or_wagons":   app.ContainersOrWagons,
		"period":                 app.Period,
		"shipper":                app.Shipper,
		"consignee":              app.Consignee,
		"departure_country":      app.DepartureCountry,
		"destination_country":    app.DestinationCountry,
		"territories":            strings.Join(names, ", "),
		"forwarder":              forwarder,
		"manager":                manager,
		"comment":                app.Comment,
	}
}

var rowOrder = []struct {
	key   string
	label string
}{
	{"order_number", "Номер заявки"},
	{"date", "Дата"},
	{"sending_type", "Вид отправки"},
	{"quantity", "Количество"},
	{"departure", "Станция отправления"},
	{"departure_code", "Код станции отправления"},
	{"destination", "Станция назначения"},
	{"destination_code", "Код станции назначения"},
	{"cargo", "Груз"},
	{"hs_code", "Код ТН ВЭД"},
	{"etcng", "Код ЕТСНГ"},
	{"loading_type", "Вид погрузки"},
	{"weight", "Вес"},
	{"container_type", "Тип контейнера"},
	{"rolling_stock_1", "Подвижной состав 1"},
	{"rolling_stock_2", "Подвижной состав 2"},
	{"conditions_of_carriage", "Условия перевозки"},
	{"agreed_rate", "Согласованная ставка"},
	{"add_charges", "Дополнительные сборы"},
	{"border_crossing", "Пограничный переход"},
	{"containers_or_wagons", "Контейнеры/вагоны"},
	{"period", "Период"},
	{"shipper", "Грузоотправитель"},
	{"consignee", "Грузополучатель"},
	{"departure_country", "Страна отправления"},
	{"destination_country", "Страна назначения"},
	{"territories", "Территории"},
	{"forwarder", "Экспедитор"},
	{"manager", "Менеджер"},
	{"paid_telegram", ""},
	{"comment", "Комментарий"},
}

func buildRows(data map[string]string) []pdf.Row {
	rows := make([]pdf.Row, 0, len(rowOrder))
	for _, r := range rowOrder {
		rows = append(rows, pdf.Row{Label: r.label, Value: data[r.key]})
	}
	return rows
}
