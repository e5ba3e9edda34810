// Package bot assembles the storefront application: configuration, the
// session engine with its flows, and the telebot runtime adapters.
package bot

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/chimchimster/balance-bot/auth"
	"github.com/chimchimster/balance-bot/core/bootstrap"
	tg "github.com/chimchimster/balance-bot/core/telegram"
	"github.com/chimchimster/balance-bot/core/telegram/commands"
	tghelpers "github.com/chimchimster/balance-bot/core/telegram/helpers"
	"github.com/chimchimster/balance-bot/core/telegram/router"
	"github.com/chimchimster/balance-bot/handlers"
	"github.com/chimchimster/balance-bot/mail"
	"github.com/chimchimster/balance-bot/session"
	"github.com/chimchimster/balance-bot/storage"
)

// App is the assembled storefront bot.
type App struct {
	cfg *AppConfig

	infra     *bootstrap.Result
	engine    *session.Engine
	transport *Transport
	sink      *Sink
	registry  *tg.Registry
}

// Bootstrap brings up infrastructure and wires the engine with every flow.
func Bootstrap(cfg *AppConfig) (*App, error) {
	infra, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
		Redis:    cfg.Redis,
	})
	if err != nil {
		return nil, err
	}

	store := storage.New(infra.DB)
	resolver := auth.NewResolver(
		auth.NewRedisCache(infra.Redis),
		store,
		time.Duration(cfg.Auth.PeriodSeconds)*time.Second,
	)

	transport := NewTransport()
	engine := session.NewEngine(session.Options{
		Store:     session.NewRedisStore(infra.Redis, time.Duration(cfg.Auth.SessionTTLHours)*time.Hour),
		Transport: transport,
		Resolver:  resolver,
		TransientReply: session.Content{
			Text: "Oops, something went wrong... Please try again later.",
		},
	})

	carts, paginators := handlers.NewRegistries()
	handlers.Register(engine, &handlers.Deps{
		Store:        store,
		Resolver:     resolver,
		Mail:         mail.NewSMTPSender(cfg.Mail),
		Carts:        carts,
		Paginators:   paginators,
		MaxCartItems: cfg.Cart.MaxItems,
		SupportURL:   cfg.SupportURL,
	})

	app := &App{
		cfg:       cfg,
		infra:     infra,
		engine:    engine,
		transport: transport,
		sink:      NewSink(engine),
		registry:  tg.NewRegistry(),
	}
	app.registerCommands()
	return app, nil
}

// registerCommands wires the bot commands. Start simply pushes the event
// through the engine so the guard decides what the user sees.
func (a *App) registerCommands() {
	start := commands.Command{
		Handler:     a.sink.HandleText,
		Description: "Open the store",
	}
	a.registry.RegisterCommand("/start", start)
	a.registry.RegisterCommand("/run", commands.Command{
		Handler: a.sink.HandleText,
		Hidden:  true,
	})
}

// TelegramRunOptions satisfies the runner's TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.TextRoutes(a.registry, a.sink, router.TextOptions{})
	routes = append(routes, router.CallbackRoute(a.sink))

	onLimited := func(c tele.Context) error {
		return tghelpers.SendText(c, "Too many requests, slow down a little.")
	}

	return tg.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Core, onLimited),
		Routes:      routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			a.transport.Attach(rt.Bot)
			return nil
		},
		OnStop: func(context.Context, tg.Runtime) error {
			return a.Close()
		},
	}, nil
}

// Close releases infrastructure connections.
func (a *App) Close() error {
	err := a.infra.DB.Close()
	if rerr := a.infra.Redis.Close(); err == nil {
		err = rerr
	}
	return err
}
