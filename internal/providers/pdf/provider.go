package pdf

import "context"

// Row is one labeled line of the rendered paperwork.
type Row struct {
	Label string
	Value string
}

// Document is the converter input. SourcePath points at the rendered
// office document on disk; Rows carry the same content in structured
// form for providers that lay the page out themselves.
type Document struct {
	Name       string
	SourcePath string
	Title      string
	Rows       []Row
}

type Provider interface {
	Convert(ctx context.Context, doc Document) ([]byte, error)
}
