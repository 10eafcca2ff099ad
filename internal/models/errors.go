package models

import "errors"

// Ошибки уровня приложения. Обработчики сопоставляют их с HTTP статусами через errors.Is.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrBadRequest = errors.New("bad request")

	// Ответ нарративной модели не удалось разобрать или в нем нет обязательных ключей.
	ErrMalformedAIResponse = errors.New("malformed AI response")
	// Нарративный провайдер недоступен, вернул ошибку или пустой ответ.
	ErrUpstreamUnavailable = errors.New("narrative provider unavailable")
	// Генерация изображения не удалась. Наружу никогда не выходит, только логируется.
	ErrImageGenerationFailed = errors.New("image generation failed")

	// Изменение вывело бы показатель за пределы int64. Запись при этом не меняется.
	ErrStatOverflow = errors.New("stat value out of range")

	ErrInternalServer = errors.New("internal server error")
)
