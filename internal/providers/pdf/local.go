package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// LocalRenderer lays the paperwork out directly, without an external
// conversion service. Used in deployments where the converter is not
// reachable and in development.
type LocalRenderer struct{}

func NewLocalRenderer() *LocalRenderer {
	return &LocalRenderer{}
}

func (r *LocalRenderer) Convert(ctx context.Context, doc Document) ([]byte, error) {
	cfg := marotocfg.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, doc.Title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
		}),
	)

	for _, row := range doc.Rows {
		if row.Value == "" {
			continue
		}
		m.AddRow(8,
			text.NewCol(4, row.Label, props.Text{Size: 9, Style: fontstyle.Bold}),
			text.NewCol(8, row.Value, props.Text{Size: 9}),
		)
	}
	if len(doc.Rows) == 0 {
		m.AddRow(8, col.New(12))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return out.GetBytes(), nil
}
