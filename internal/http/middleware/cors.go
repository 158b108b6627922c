package middleware

import (
	"net/http"

	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func isDevelopment(environment string) bool {
	return environment == "" || environment == "development" || environment == "local"
}

// CORS returns a CORS middleware configured from the application config.
// An empty origin list allows every origin in development and none elsewhere.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   append([]string{RequestIDHeader}, cfg.ExposedHeaders...),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	allowAny := func(r *http.Request, origin string) bool { return origin != "" }

	switch {
	case containsWildcard(cfg.AllowedOrigins):
		if !isDevelopment(environment) {
			logger.Warn("CORS configured with wildcard origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAny
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", cfg.AllowedOrigins))
	case isDevelopment(environment):
		options.AllowOriginFunc = allowAny
		logger.Info("CORS allows all origins in development mode")
	default:
		// an empty AllowedOrigins means "*" to go-chi/cors, so deny explicitly
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("CORS configured with no allowed origins, cross-origin requests will be denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
