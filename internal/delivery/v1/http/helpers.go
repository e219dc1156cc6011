package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/image-search/pkg/e"
	"github.com/jimlawless/whereami"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// searchParams — разобранные query-параметры поиска.
// nil означает, что параметр не задан и берётся значение из конфигурации.
type searchParams struct {
	TopK      *int
	Threshold *float64
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrNotAnImage):
		return http.StatusBadRequest, e.ErrNotAnImage.Error()
	case errors.Is(err, e.ErrEmptyImage):
		return http.StatusBadRequest, e.ErrEmptyImage.Error()
	case errors.Is(err, e.ErrImageURLRequired):
		return http.StatusBadRequest, e.ErrImageURLRequired.Error()
	case errors.Is(err, e.ErrInvalidTopK):
		return http.StatusBadRequest, e.ErrInvalidTopK.Error()
	case errors.Is(err, e.ErrInvalidThreshold):
		return http.StatusBadRequest, e.ErrInvalidThreshold.Error()
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusBadRequest, e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, e.ErrStoreUnavailable.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parseSearchParams валидирует top_k (1..50) и threshold (0..1) из query.
func parseSearchParams(r *http.Request) (*searchParams, error) {
	const (
		minTopK      = 1
		maxTopK      = 50
		minThreshold = 0.0
		maxThreshold = 1.0
	)

	params := &searchParams{}

	if raw := r.URL.Query().Get("top_k"); raw != "" {
		topK, err := strconv.Atoi(raw)
		if err != nil || topK < minTopK || topK > maxTopK {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrInvalidTopK)
		}
		params.TopK = &topK
	}

	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < minThreshold || threshold > maxThreshold {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrInvalidThreshold)
		}
		params.Threshold = &threshold
	}

	return params, nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	return r.ParseMultipartForm(maxMemory)
}

// parseImageFile читает файл изображения из multipart-формы.
// Отклоняет не-изображения по сниффингу содержимого до вызова пайплайна.
func parseImageFile(fh *multipart.FileHeader, maxSize int64) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, e.ErrInternalServerError
	}
	if len(data) == 0 {
		return nil, e.Wrap(fh.Filename, e.ErrEmptyImage)
	}
	if int64(len(data)) > maxSize {
		return nil, e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, e.Wrap(fh.Filename, e.ErrNotAnImage)
	}

	return data, nil
}
