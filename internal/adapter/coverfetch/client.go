package coverfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/GoArmGo/BookWave/internal/config"
)

// maxCoverBytes предел размера скачиваемой обложки
const maxCoverBytes = 5 << 20

// Client скачивает исходные обложки книг по URL из каталога.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient создает клиент с таймаутом из конфигурации.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.CoverFetchTimeout},
		userAgent:  "BookWave-CoverMirror/1.0",
	}
}

// FetchCover скачивает изображение и возвращает его вместе с MIME-типом,
// определенным по содержимому. Ответ не-изображение считается ошибкой.
func (c *Client) FetchCover(ctx context.Context, sourceURL string) (io.ReadCloser, string, error) {
	if !strings.HasPrefix(sourceURL, "http://") && !strings.HasPrefix(sourceURL, "https://") {
		return nil, "", fmt.Errorf("неподдерживаемый URL обложки: %q", sourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка выполнения HTTP-запроса к %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("источник обложки вернул статус %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("ошибка чтения обложки: %w", err)
	}
	if len(data) > maxCoverBytes {
		return nil, "", fmt.Errorf("обложка больше %d байт", maxCoverBytes)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, "", fmt.Errorf("источник вернул %s вместо изображения (%s)", mt.String(), time.Since(start))
	}

	return io.NopCloser(bytes.NewReader(data)), mt.String(), nil
}
