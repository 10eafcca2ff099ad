package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
)

// NewCORSConfig возвращает разрешающую CORS политику: любые методы и заголовки.
// Пустой список origins разрешает все источники. Cookie и авторизация не используются,
// поэтому credentials не включаются и "*" в Allow-Headers работает как wildcard.
// X-Request-ID отдается браузеру, чтобы клиент мог сослаться на запрос в логах.
func NewCORSConfig(allowedOrigins []string) cors.Config {
	corsConfig := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	return corsConfig
}
