package e

import "fmt"

var (
	// 400 Bad Request
	ErrExpectedMultipart = fmt.Errorf("expected multipart/form-data request")
	ErrNotAnImage        = fmt.Errorf("file must be an image (JPEG, PNG, WebP)")
	ErrEmptyImage        = fmt.Errorf("empty image file")
	ErrImageURLRequired  = fmt.Errorf("image_url is required")
	ErrInvalidTopK       = fmt.Errorf("top_k must be an integer between 1 and 50")
	ErrInvalidThreshold  = fmt.Errorf("threshold must be a number between 0.0 and 1.0")
	ErrFileTooLarge      = fmt.Errorf("file is too large")

	// Ошибки пайплайна поиска
	ErrFetchFailed     = fmt.Errorf("failed to fetch image")
	ErrDecodeFailed    = fmt.Errorf("failed to decode image")
	ErrEmbeddingFailed = fmt.Errorf("failed to compute image embedding")
	ErrModelNotLoaded  = fmt.Errorf("embedding model is not loaded")

	// Ошибки внешних хранилищ
	ErrStoreUnavailable  = fmt.Errorf("catalog store is unavailable")
	ErrImageSourceNotSet = fmt.Errorf("object storage for image source is not configured")

	// Внутренние ошибки с векторами
	ErrEmptyVector = fmt.Errorf("embedding vector is empty")
	ErrZeroVector  = fmt.Errorf("embedding vector has zero norm")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
