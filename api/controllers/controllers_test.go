package controllers

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}
