package domain

import "time"

// Item описывает товар каталога — неизменяемый снимок документа из внешнего хранилища.
// Нормализация динамических полей документа выполняется на границе репозитория,
// ядро работает только с уже приведенными значениями.
type Item struct {
	ID            string
	Name          string
	Price         float64
	Category      string
	ImageURL      string
	Size          *float64
	Description   *string
	AverageRating *float64
	TotalRatings  *int64
	CreatedAt     *time.Time
	UpdatedAt     *time.Time
}

// HasImage сообщает, есть ли у товара непустая ссылка на изображение.
func (i *Item) HasImage() bool {
	return i.ImageURL != ""
}
