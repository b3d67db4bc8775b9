package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"breather/internal/airvisual"
	"breather/internal/config"
	"breather/internal/display"
	"breather/internal/engine"
	httpapi "breather/internal/httpapi"
	airquality "breather/internal/modules/airquality"
	"breather/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"airvisualBaseURL", cfg.AirVisual.BaseURL,
		"sampleData", cfg.UsesSampleData(),
		"lat", cfg.Location.Lat,
		"lon", cfg.Location.Lon,
		"fetchTimeout", cfg.FetchTimeout,
		"refreshInterval", cfg.RefreshInterval,
		"displayMode", cfg.DisplayMode.String(),
		"bandsFile", cfg.BandsFile,
		"mqttEnabled", cfg.MQTT.Enabled,
		"mqttBroker", cfg.MQTT.Broker,
		"mqttPort", cfg.MQTT.Port,
		"mqttTopicPrefix", cfg.MQTT.TopicPrefix,
	)

	bands := display.DefaultBands()
	if cfg.BandsFile != "" {
		loaded, err := display.LoadBands(cfg.BandsFile)
		if err != nil {
			return err
		}
		bands = loaded
	}

	var fetcher engine.Fetcher
	if cfg.UsesSampleData() {
		logger.Warn("AIRVISUAL_API_KEY not set, serving sample data")
		fetcher = airvisual.SampleSource{}
	} else {
		fetcher = airvisual.NewClient(airvisual.Options{
			BaseURL: cfg.AirVisual.BaseURL,
			APIKey:  cfg.AirVisual.APIKey,
			Timeout: cfg.FetchTimeout,
			Logger:  logger,
		})
	}

	eng := engine.New(engine.Options{
		Fetcher: fetcher,
		Lat:     cfg.Location.Lat,
		Lon:     cfg.Location.Lon,
		Bands:   bands,
		Mode:    cfg.DisplayMode,
		Logger:  logger,
	})

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var wg sync.WaitGroup
	engineErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		engineErr <- eng.Run(runCtx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.RunTicker(runCtx, cfg.RefreshInterval)
	}()

	// httpapi.BrokerStatus must stay a nil interface when MQTT is disabled.
	var brokerStatus httpapi.BrokerStatus
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient = mqtt.NewClient(cfg.MQTT, logger)
		brokerStatus = mqttClient

		// Register before Connect so the command subscription is made on CONNACK.
		bridge, err := airquality.RegisterBridge(eng, mqttClient, cfg.MQTT.TopicPrefix, logger)
		if err != nil {
			return err
		}

		// Short timeout so a missing broker does not block startup; paho keeps retrying.
		connectCtx, connectCancel := context.WithTimeout(runCtx, 5*time.Second)
		err = mqttClient.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bridge.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mqtt bridge stopped", "error", err)
			}
		}()
	}

	mux := httpapi.NewMux(brokerStatus)
	airquality.RegisterFeature(mux, eng, logger)
	srv := httpapi.NewServer(cfg, mux, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	var runErr error
	serverDone := false
	select {
	case <-ctx.Done():
	case err := <-engineErr:
		// Only a second Run call can end the engine early.
		runErr = err
	case err := <-errCh:
		serverDone = true
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stopping the engine closes every event stream, so Shutdown can drain.
	cancelRun()
	wg.Wait()

	if mqttClient != nil {
		logger.Info("mqtt disconnecting")
		mqttClient.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if !serverDone {
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) && runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		return runErr
	}
	return ctx.Err()
}
