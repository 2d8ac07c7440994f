// Package app builds the chat backend from its parts and owns their
// lifecycle. Every shared registry is created here once and handed to the
// components that need it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tyrowin/roomchat/internal/broker"
	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/event"
	"github.com/Tyrowin/roomchat/internal/identity"
	"github.com/Tyrowin/roomchat/internal/room"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/service"
)

// App is a fully wired chat backend.
type App struct {
	Config      server.Config
	Connections *connection.Registry
	Identities  *identity.Registry
	Auths       *identity.AuthRegistry
	Rooms       *room.Registry
	Broker      *broker.Broker
	Events      *event.Hub
	Services    *service.Services
	Transport   *server.Hub

	log *slog.Logger
}

// New wires the registries, broker, services and transport. Nothing runs
// until Start.
func New(cfg server.Config, log *slog.Logger) (*App, error) {
	conns := connection.NewRegistry(log)
	a := &App{
		Config:      cfg,
		Connections: conns,
		Identities:  identity.NewRegistry(conns, log),
		Auths:       identity.NewAuthRegistry(conns, log),
		Rooms:       room.NewRegistry(log),
		Broker: broker.New(conns, broker.Options{
			Workers:    cfg.Broker.Workers,
			MaxRetries: cfg.Broker.MaxRetries,
		}, log),
		Events: event.NewHub(log),
		log:    log,
	}

	a.Services = service.New(service.Deps{
		Connections: a.Connections,
		Identities:  a.Identities,
		Auths:       a.Auths,
		Rooms:       a.Rooms,
		Sender:      a.Broker,
		Log:         log,
	}, a.Events)
	if err := a.Services.Attach(a.Events); err != nil {
		return nil, fmt.Errorf("attach services: %w", err)
	}

	a.Transport = server.NewHub(cfg, a.Events, log)
	return a, nil
}

// Handler returns the HTTP routes of the transport.
func (a *App) Handler() http.Handler {
	return server.SetupRoutes(a.Transport)
}

// Start launches the broker workers and the transport loop.
func (a *App) Start(ctx context.Context) error {
	if err := a.Broker.Start(ctx); err != nil {
		return fmt.Errorf("start broker: %w", err)
	}
	go a.Transport.Run()
	a.log.Info("Chat backend started", "listeners", a.Events.Len())
	return nil
}

// Shutdown closes the event hub to new listeners, disconnects every client
// and stops the broker, abandoning undelivered frames. Close events raised
// by the disconnects still reach the services.
func (a *App) Shutdown(ctx context.Context) error {
	a.Events.Close()
	transportErr := a.Transport.Shutdown(ctx)
	brokerErr := a.Broker.Shutdown(ctx)

	stats := a.Broker.Stats()
	a.log.Info("Chat backend stopped",
		"delivered", stats.Delivered,
		"retried", stats.Retried,
		"discarded", stats.Discarded,
		"dropped", stats.Dropped)
	return errors.Join(transportErr, brokerErr)
}
