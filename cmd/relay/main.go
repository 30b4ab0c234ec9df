package main

import (
	"go-idcard/internal/app"
	"go-idcard/internal/config"
	"go-idcard/internal/shared/apperror"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	if err := app.RunRelay(config.Load()); err != nil {
		logger.Fatal("run relay failed", zap.Error(err))
	}
}
