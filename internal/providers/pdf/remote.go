package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/interrail/forwarding/internal/config"
	"go.uber.org/zap"
)

// RemoteConverter posts the rendered office document to an external
// conversion service and returns the PDF bytes it responds with.
type RemoteConverter struct {
	holder *config.DocumentConfigHolder
	log    *zap.Logger
	client *http.Client
}

func NewRemoteConverter(holder *config.DocumentConfigHolder, log *zap.Logger) *RemoteConverter {
	return &RemoteConverter{
		holder: holder,
		log:    log,
		client: &http.Client{},
	}
}

func (c *RemoteConverter) Convert(ctx context.Context, doc Document) ([]byte, error) {
	cfg := c.holder.Get()

	f, err := os.Open(doc.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("document", filepath.Base(doc.SourcePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConverterTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.ConverterURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("document conversion request failed",
			zap.String("url", cfg.ConverterURL),
			zap.Error(err),
		)
		return nil, fmt.Errorf("conversion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("conversion service returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
