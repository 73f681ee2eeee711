package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"github.com/GoArmGo/BookWave/internal/core/ports"
	"github.com/GoArmGo/BookWave/internal/domain"
	"github.com/GoArmGo/BookWave/internal/messaging/payloads"
)

// coverVariant размер обложки по высоте в пикселях, 0 оставляет исходный размер
type coverVariant struct {
	name   string
	height int
}

var coverVariants = []coverVariant{
	{name: "small", height: 60},
	{name: "medium", height: 150},
	{name: "large", height: 0},
}

// decodableCoverTypes форматы, которые умеет читать imaging
var decodableCoverTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

type coverUseCase struct {
	books       ports.BookStorage
	fetcher     CoverFetcher
	fileStorage FileStorage
	logger      *slog.Logger
}

// NewCoverUseCase создает обработчик задач зеркалирования обложек
func NewCoverUseCase(books ports.BookStorage, fetcher CoverFetcher, fileStorage FileStorage, logger *slog.Logger) CoverUseCase {
	return &coverUseCase{
		books:       books,
		fetcher:     fetcher,
		fileStorage: fileStorage,
		logger:      logger,
	}
}

// MirrorCover скачивает обложку, готовит три варианта и сохраняет их URL у книги.
// Для удаленной книги задача просто подтверждается
func (uc *coverUseCase) MirrorCover(ctx context.Context, payload payloads.CoverMirrorPayload) error {
	start := time.Now()

	book, err := uc.books.GetBook(ctx, payload.ISBN)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при получении книги %s: %w", payload.ISBN, err)
	}
	if book == nil {
		uc.logger.Warn("cover mirror skipped, book not found", "isbn", payload.ISBN, "request_id", payload.RequestID)
		return nil
	}

	body, contentType, err := uc.fetcher.FetchCover(ctx, payload.SourceURL)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при скачивании обложки %s: %w", payload.SourceURL, err)
	}
	defer body.Close()

	if !decodableCoverTypes[contentType] {
		uc.logger.Warn("cover mirror skipped, unsupported image format",
			"isbn", payload.ISBN, "source_url", payload.SourceURL, "content_type", contentType)
		return nil
	}

	img, err := imaging.Decode(body, imaging.AutoOrientation(true))
	if err != nil {
		// битое изображение повторять бессмысленно
		uc.logger.Warn("cover mirror skipped, image cannot be decoded",
			"isbn", payload.ISBN, "source_url", payload.SourceURL, "error", err)
		return nil
	}

	urls := make(map[string]string, len(coverVariants))
	keys := make([]string, 0, len(coverVariants))
	for _, v := range coverVariants {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resizeToHeight(img, v.height), imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
			return fmt.Errorf("usecase: ошибка кодирования обложки %s (%s): %w", payload.ISBN, v.name, err)
		}

		key := fmt.Sprintf("covers/%s/%s.jpg", payload.ISBN, v.name)
		url, err := uc.fileStorage.UploadFile(ctx, key, &buf, "image/jpeg")
		if err != nil {
			uc.removeObjects(ctx, keys)
			return fmt.Errorf("usecase: ошибка загрузки обложки %s в S3: %w", key, err)
		}
		urls[v.name] = url
		keys = append(keys, key)
	}

	if err := uc.books.UpdateCoverURLs(ctx, payload.ISBN, urls["small"], urls["medium"], urls["large"]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// книгу удалили, пока шла загрузка
			uc.logger.Warn("cover mirror discarded, book deleted", "isbn", payload.ISBN, "request_id", payload.RequestID)
			uc.removeObjects(ctx, keys)
			return nil
		}
		return fmt.Errorf("usecase: ошибка при сохранении URL обложек книги %s: %w", payload.ISBN, err)
	}

	uc.logger.Info("cover mirrored",
		"isbn", payload.ISBN,
		"request_id", payload.RequestID,
		"content_type", contentType,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// removeObjects удаляет уже загруженные варианты, ошибки только логируются
func (uc *coverUseCase) removeObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := uc.fileStorage.DeleteFile(ctx, key); err != nil {
			uc.logger.Warn("failed to remove cover object", "key", key, "error", err)
		}
	}
}

// resizeToHeight уменьшает изображение до нужной высоты, маленькие не увеличивает
func resizeToHeight(img image.Image, height int) image.Image {
	if height == 0 || img.Bounds().Dy() <= height {
		return img
	}
	return imaging.Resize(img, 0, height, imaging.Lanczos)
}
