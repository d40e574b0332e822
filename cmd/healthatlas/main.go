package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openjordan/healthatlas/internal/api"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/openjordan/healthatlas/internal/pkg/logger"
	"github.com/openjordan/healthatlas/internal/pkg/store"
	"github.com/openjordan/healthatlas/internal/pkg/store/xpgx"
	"github.com/openjordan/healthatlas/internal/service/wikidata"
	"github.com/spf13/viper"
)

func main() {
	ctx := context.Background()

	initConfig(ctx)

	pool, err := xpgx.NewPool(ctx, viper.GetString(constants.ViperDatabaseDSN))
	if err != nil {
		logger.Fatal(ctx, err)
	}
	defer pool.Close()

	svc, err := api.NewAPIService(store.NewStore(pool))
	if err != nil {
		logger.Fatal(ctx, err)
	}

	go svc.Serve(viper.GetString(constants.ViperListenAddr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Fatal(shutdownCtx, err)
	}
}

func initConfig(ctx context.Context) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault(constants.ViperListenAddr, ":8080")
	viper.SetDefault(constants.ViperRateDecimals, 1)
	viper.SetDefault(constants.ViperPopulationTolerance, 0.005)
	viper.SetDefault(constants.ViperContainmentTol, 0.0001)
	viper.SetDefault(constants.ViperWikidataBaseURL, wikidata.DefaultBaseURL)

	if err := viper.ReadInConfig(); err != nil {
		logger.Errorf(ctx, "viper.ReadInConfig: %s", err.Error())
	}
}
