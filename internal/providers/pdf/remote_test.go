package pdf

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/interrail/forwarding/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeSourceDoc(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "request.docx")
	require.NoError(t, os.WriteFile(path, []byte("rendered document body"), 0o644))
	return path
}

func newRemote(t *testing.T, url string, timeout time.Duration) *RemoteConverter {
	t.Helper()

	holder := config.NewStaticDocumentConfigHolder(config.DocumentConfig{
		TemplatePath:     "template.docx",
		MediaRoot:        t.TempDir(),
		Provider:         config.PDFProviderRemote,
		ConverterURL:     url,
		ConverterTimeout: timeout,
	})
	return NewRemoteConverter(holder, zap.NewNop())
}

func TestRemoteConvertPostsMultipartDocument(t *testing.T) {
	var gotField string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("document")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotField = header.Filename
		gotBody, _ = io.ReadAll(file)
		_, _ = w.Write([]byte("%PDF-1.7 converted"))
	}))
	defer srv.Close()

	converter := newRemote(t, srv.URL, 5*time.Second)
	out, err := converter.Convert(context.Background(), Document{SourcePath: writeSourceDoc(t)})
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.7 converted"), out)
	require.Equal(t, "request.docx", gotField)
	require.Equal(t, []byte("rendered document body"), gotBody)
}

func TestRemoteConvertNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported format", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	converter := newRemote(t, srv.URL, 5*time.Second)
	_, err := converter.Convert(context.Background(), Document{SourcePath: writeSourceDoc(t)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "422")
}

func TestRemoteConvertTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	converter := newRemote(t, srv.URL, 50*time.Millisecond)
	_, err := converter.Convert(context.Background(), Document{SourcePath: writeSourceDoc(t)})
	require.Error(t, err)
}

func TestRemoteConvertMissingSource(t *testing.T) {
	converter := newRemote(t, "http://converter.invalid", time.Second)
	_, err := converter.Convert(context.Background(), Document{SourcePath: "/does/not/exist.docx"})
	require.Error(t, err)
}

func TestLocalRendererProducesPDF(t *testing.T) {
	renderer := NewLocalRenderer()
	out, err := renderer.Convert(context.Background(), Document{
		Title: "Заявка INT-7",
		Rows: []Row{
			{Label: "Груз", Value: "Зерно"},
			{Label: "Вес", Value: "64.50"},
		},
	})
	require.NoError(t, err)
	require.True(t, len(out) > 4)
	require.Equal(t, "%PDF", string(out[:4]))
}
