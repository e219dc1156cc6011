package main

import (
	"github.com/DRSN-tech/image-search/internal/app"
)

//	@title			Image Search API
//	@version		1.0
//	@description	Сервис поиска похожих товаров каталога по изображению

//	@BasePath	/api/v1

func main() {
	app.Run()
}
