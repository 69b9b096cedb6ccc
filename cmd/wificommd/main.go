// wificommd runs the WiFi commissioning daemon: a commissioning kernel
// served over a Unix domain JSON-RPC socket and, optionally, a BLE GATT
// peripheral. Flag parsing is deliberately absent (spec.md excludes CLI
// argument parsing from scope); the only input is an optional config
// file path.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jzachmann/wifi-commissioning/pkg/audit"
	auditsqlite "github.com/jzachmann/wifi-commissioning/pkg/audit/sqlite"
	"github.com/jzachmann/wifi-commissioning/pkg/commissioning"
	"github.com/jzachmann/wifi-commissioning/pkg/config"
	"github.com/jzachmann/wifi-commissioning/pkg/logger"
	"github.com/jzachmann/wifi-commissioning/pkg/metrics"
	"github.com/jzachmann/wifi-commissioning/pkg/notify"
	"github.com/jzachmann/wifi-commissioning/pkg/transport/ble"
	"github.com/jzachmann/wifi-commissioning/pkg/transport/unixsock"
	"github.com/jzachmann/wifi-commissioning/pkg/wifi"
)

func main() {
	var cfgPath string
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	if err := run(cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	})
	logger.SetGlobal(log)

	auditStore, err := openAuditStore(cfg.Audit)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer auditStore.Close()

	backend := wifi.NewSupervisorBackend(cfg.Interface)
	svc := commissioning.New(backend, cfg.DeviceID, log.Logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sinks := []notify.Sink{notify.NewAuditSink(auditStore)}
	var mqttSink *notify.MQTTSink
	if cfg.Notify.MQTT.Enabled {
		mqttSink, err = notify.NewMQTTSink(notify.MQTTConfig{
			Broker:   cfg.Notify.MQTT.Broker,
			ClientID: cfg.Notify.MQTT.ClientID,
			Topic:    cfg.Notify.MQTT.Topic,

			ConnectTimeout: notify.DefaultMQTTConfig().ConnectTimeout,
		})
		if err != nil {
			log.Warn("mqtt sink unavailable, continuing without it", "error", err)
		} else {
			defer mqttSink.Close()
			sinks = append(sinks, mqttSink)
		}
	}
	hub := notify.NewHub(log.Logger, sinks...)
	go hub.Run(ctx, svc)

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Address); err != nil {
				log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	unixSrv := unixsock.New(cfg.UnixSocket.Path, os.FileMode(cfg.UnixSocket.Mode), svc, log)
	go func() {
		if err := unixSrv.Serve(ctx); err != nil {
			log.Error("unix socket server stopped", "error", err)
		}
	}()

	if cfg.BLE.Enabled {
		bleSrv := ble.New(cfg.BLE.DeviceName, svc, log.Logger)
		go func() {
			if err := bleSrv.Serve(ctx); err != nil {
				log.Error("ble server stopped", "error", err)
			}
		}()
	}

	log.Info("wificommd started", "device_id", cfg.DeviceID, "unix_socket", cfg.UnixSocket.Path, "ble_enabled", cfg.BLE.Enabled)
	<-ctx.Done()
	log.Info("wificommd shutting down")
	return nil
}

func openAuditStore(cfg config.AuditConfig) (audit.Store, error) {
	if !cfg.Enabled {
		return audit.NopStore{}, nil
	}
	return auditsqlite.NewStore(cfg.Path)
}
