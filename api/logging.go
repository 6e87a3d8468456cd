package api

import (
	"net/http"

	"text2phenotype.com/hmmpos/logger"

	"github.com/rs/zerolog"
)

var defaultLogger = logger.NewLogger("API")

type endpointLoggerFields struct {
	Method string `json:"method"`
	Url    string `json:"url"`
}

const RequestInfoFieldsKey = "request_info"

func makeRequestLogger(request *http.Request, tid string) zerolog.Logger {
	fields := endpointLoggerFields{
		Method: request.Method,
		Url:    request.URL.String(),
	}
	return defaultLogger.With().
		Interface(RequestInfoFieldsKey, fields).
		Str("tid", tid).
		Logger()
}
