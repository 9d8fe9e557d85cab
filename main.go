package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danthegoodman1/bqconnector/config"
	"github.com/danthegoodman1/bqconnector/connector"
	"github.com/danthegoodman1/bqconnector/gologger"
	"github.com/danthegoodman1/bqconnector/http_server"
	"github.com/danthegoodman1/bqconnector/utils"
	"github.com/danthegoodman1/bqconnector/warehouse"
	"google.golang.org/api/option"
)

var logger = gologger.NewLogger()

func main() {
	logger.Debug().Msg("starting bqconnector")

	cfg, err := config.Load(utils.CONFIG_FILE)
	if err != nil {
		logger.Error().Err(err).Msg("error loading config")
		os.Exit(1)
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	bq := warehouse.NewBigQueryClient(cfg.ClientTTL(), opts...)

	conn := connector.New(bq, connector.WithFilterLimit(cfg.FilterLimit))
	if err := bindStartup(conn, cfg); err != nil {
		logger.Error().Err(err).Msg("error binding configured table")
		os.Exit(1)
	}

	httpServer := http_server.StartHTTPServer(conn, cfg.DefaultLimit)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	sleepTime := utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}

	if err := bq.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to close bigquery clients")
	}
}

// bindStartup binds whatever levels the config names, no warehouse calls are made
func bindStartup(conn *connector.Connector, cfg *config.Config) error {
	ctx := logger.WithContext(context.Background())
	if cfg.ProjectID == "" {
		return nil
	}
	if err := conn.BindProject(ctx, cfg.ProjectID); err != nil {
		return err
	}
	if cfg.DatasetID == "" {
		return nil
	}
	if err := conn.BindDataset(ctx, cfg.DatasetID); err != nil {
		return err
	}
	if cfg.TableID == "" {
		return nil
	}
	if err := conn.BindTable(ctx, cfg.TableID); err != nil {
		return err
	}
	logger.Info().Interface("binding", conn.Binding()).Msg("bound configured table")
	return nil
}
