package http

import (
	"net/http"

	"github.com/DRSN-tech/image-search/internal/usecase"
	"github.com/DRSN-tech/image-search/pkg/e"
	"github.com/DRSN-tech/image-search/pkg/logger"
	"github.com/jimlawless/whereami"
)

type SearchHandler struct {
	searchUsecase usecase.SearchUC
	logger        logger.Logger
}

func NewSearchHandler(searchUsecase usecase.SearchUC, logger logger.Logger) *SearchHandler {
	return &SearchHandler{searchUsecase: searchUsecase, logger: logger}
}

// searchByImage
//
//	@Summary		Поиск похожих товаров по изображению
//	@Description	Принимает файл изображения и возвращает top-K ближайших товаров каталога
//	@Tags			search
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"Файл изображения"
//	@Param			top_k		query		int		false	"Количество результатов (1-50)"
//	@Param			threshold	query		number	false	"Порог близости (0.0-1.0)"
//	@Success		200			{array}		SearchResultResponse	"Ранжированные результаты"
//	@Failure		400			{object}	ErrorResponse			"Ошибка валидации"
//	@Failure		500			{object}	ErrorResponse			"Внутренняя ошибка"
//	@Router			/search/image [post]
func (h *SearchHandler) searchByImage(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 25 << 20
		maxMemory           = 10 << 20
		maxFileSize         = 20 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	params, err := parseSearchParams(r)
	if err != nil {
		h.logger.Warnf("%d: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		h.logger.Warnf("%d: %s", http.StatusBadRequest, r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		h.logger.Warnf("%d: file field is missing", http.StatusBadRequest)
		WriteError(w, e.Wrap(whereami.WhereAmI(), e.ErrEmptyImage))
		return
	}

	data, err := parseImageFile(files[0], maxFileSize)
	if err != nil {
		h.logger.Warnf("%d: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	results, err := h.searchUsecase.SearchByImage(r.Context(), usecase.NewSearchByImageReq(data, params.TopK, params.Threshold))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSearchResponse(results))
}

// searchByURL
//
//	@Summary		Поиск похожих товаров по URL изображения
//	@Description	Скачивает изображение по ссылке и возвращает top-K ближайших товаров каталога
//	@Tags			search
//	@Produce		json
//	@Param			image_url	query		string	true	"URL изображения (http, https или s3)"
//	@Param			top_k		query		int		false	"Количество результатов (1-50)"
//	@Param			threshold	query		number	false	"Порог близости (0.0-1.0)"
//	@Success		200			{array}		SearchResultResponse	"Ранжированные результаты"
//	@Failure		400			{object}	ErrorResponse			"Ошибка валидации"
//	@Failure		500			{object}	ErrorResponse			"Внутренняя ошибка"
//	@Router			/search/url [post]
func (h *SearchHandler) searchByURL(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchParams(r)
	if err != nil {
		h.logger.Warnf("%d: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	imageURL := r.URL.Query().Get("image_url")
	if imageURL == "" {
		h.logger.Warnf("%d: image_url is missing", http.StatusBadRequest)
		WriteError(w, e.Wrap(whereami.WhereAmI(), e.ErrImageURLRequired))
		return
	}

	results, err := h.searchUsecase.SearchByURL(r.Context(), usecase.NewSearchByURLReq(imageURL, params.TopK, params.Threshold))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSearchResponse(results))
}

// refresh
//
//	@Summary		Перестроение поискового индекса
//	@Description	Перечитывает каталог и пересчитывает эмбеддинги; текущий индекс обслуживает запросы до завершения
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	RefreshResponse	"Итоги перестроения"
//	@Failure		503	{object}	ErrorResponse	"Хранилище каталога недоступно"
//	@Router			/refresh [post]
func (h *SearchHandler) refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.searchUsecase.Refresh(r.Context())
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toRefreshResponse(res))
}

// health
//
//	@Summary		Проверка живости сервиса
//	@Description	Пингует хранилище каталога; не инициализирует модель и индекс
//	@Tags			service
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"Сервис работает"
//	@Failure		503	{object}	ErrorResponse	"Хранилище каталога недоступно"
//	@Router			/health [get]
func (h *SearchHandler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.searchUsecase.Healthcheck(r.Context()); err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &HealthResponse{Status: "ok"})
}

// status
//
//	@Summary		Состояние поисковой подсистемы
//	@Description	Возвращает состояние индекса и модели без побочных эффектов
//	@Tags			service
//	@Produce		json
//	@Success		200	{object}	StatusResponse	"Текущее состояние"
//	@Router			/status [get]
func (h *SearchHandler) status(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, toStatusResponse(h.searchUsecase.Status(r.Context())))
}
