package main

import (
	"context"
	"log"
	"net/http"

	"nmeafix/internal/config"
	"nmeafix/internal/gps"
	"nmeafix/internal/mqttpub"
	"nmeafix/internal/nmea"
	"nmeafix/internal/pps"
	"nmeafix/internal/udp"
	"nmeafix/internal/web"
)

// app owns every long-lived component built from one config.
type app struct {
	cfg  config.Config
	opts nmea.Options

	logs    *web.LogBuffer
	status  *web.Status
	fixes   *web.FixBroadcaster
	metrics *web.Metrics

	gpsSvc *gps.Service
	udp    *udp.Broadcaster
	mqtt   *mqttpub.Publisher
	pps    *pps.Watcher
}

func newApp(cfg config.Config, logs *web.LogBuffer) (*app, error) {
	opts, err := decoderOptions(cfg.Decoder)
	if err != nil {
		return nil, err
	}
	gc, err := gpsConfig(cfg, opts)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		opts:   opts,
		logs:   logs,
		status: web.NewStatus(),
		fixes:  web.NewFixBroadcaster(),
	}
	outputs := map[string]any{"websocket": "/ws/fix"}
	sinks := []gps.Sink{a.fixes}

	if cfg.UDP.Enable {
		b, err := udp.NewBroadcaster(cfg.UDP.Dest)
		if err != nil {
			return nil, err
		}
		a.udp = b
		sinks = append(sinks, b)
		outputs["udp"] = cfg.UDP.Dest
		log.Printf("udp enabled dest=%s", cfg.UDP.Dest)
	}

	if cfg.MQTT.Enable {
		p, err := mqttpub.New(mqttpub.Config{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			QoS:      byte(cfg.MQTT.QoS),
			Retain:   cfg.MQTT.Retain,
		})
		if err != nil {
			// Fixes still reach the other sinks.
			log.Printf("mqtt init failed: %v", err)
		} else {
			a.mqtt = p
			sinks = append(sinks, p)
			outputs["mqtt"] = cfg.MQTT.Topic
		}
	}

	if cfg.PPS.Enable {
		w, err := pps.Open(cfg.PPS.Chip, cfg.PPS.Line)
		if err != nil {
			log.Printf("pps init failed: %v", err)
		} else {
			a.pps = w
			gc.PPS = w
		}
	}

	gc.Sinks = sinks
	a.gpsSvc = gps.New(gc)
	a.status.SetGPS(a.gpsSvc.Snapshot)
	a.status.SetOutputs(outputs)
	a.metrics = web.NewMetrics(a.gpsSvc.Snapshot)
	return a, nil
}

func (a *app) handler() http.Handler {
	cfg := a.cfg
	return web.Handler(web.Deps{
		Status:    a.status,
		Logs:      a.logs,
		Fixes:     a.fixes,
		Metrics:   a.metrics,
		Config:    &cfg,
		Dialect:   dialectName(a.cfg.Decoder),
		Sentences: sentenceNames(a.opts.Dialect),
	})
}

// run starts the GPS service and, when enabled, the web server, then blocks
// until ctx ends.
func (a *app) run(ctx context.Context) error {
	if err := a.gpsSvc.Start(ctx); err != nil {
		// Keep serving status so the error is visible.
		log.Printf("gps start failed: %v", err)
	}

	webErr := make(chan error, 1)
	if a.cfg.Web.Enable {
		log.Printf("web listening addr=%s", a.cfg.Web.Listen)
		go func() {
			webErr <- web.Serve(ctx, a.cfg.Web.Listen, a.handler())
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-webErr:
		if err != nil && ctx.Err() == nil {
			return err
		}
		<-ctx.Done()
		return nil
	}
}

func (a *app) close() {
	a.gpsSvc.Close()
	if a.udp != nil {
		_ = a.udp.Close()
	}
	if a.mqtt != nil {
		a.mqtt.Close()
	}
	if a.pps != nil {
		_ = a.pps.Close()
	}
}
