package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"golang.org/x/sync/errgroup"

	"github.com/lox/runsafetonight/internal/api"
	"github.com/lox/runsafetonight/internal/cache"
	"github.com/lox/runsafetonight/internal/serverless"
	"github.com/lox/runsafetonight/internal/stats"
	"github.com/lox/runsafetonight/internal/store"
)

func (a *app) openStore() (*store.Store, error) {
	db, err := store.Open(a.cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	st := store.New(db, a.logger)
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

func (a *app) newServer(st api.Store, source string) *api.Server {
	snapshots := cache.NewSnapshots(cache.New(a.cfg.ValkeyAddr, a.logger), a.logger)
	return api.NewServer(st, snapshots, api.Options{
		Location:      a.cfg.Location,
		TimeLocation:  a.cfg.TimeLocation(a.logger),
		ConditionsTTL: a.cfg.ConditionsTTL,
		PulseTTL:      a.cfg.PulseTTL,
		Source:        source,
	}, a.logger)
}

type ServeCmd struct {
	Addr      string `help:"Listen address, overriding ADDR."`
	NoStats   bool   `help:"Disable the periodic stats reporter."`
	NoSignups bool   `help:"Run without a database; signups return 503."`
}

func (c *ServeCmd) Run(a *app, ctx context.Context) error {
	addr := a.cfg.Addr
	if c.Addr != "" {
		addr = c.Addr
	}

	var st *store.Store
	if !c.NoSignups {
		var err error
		if st, err = a.openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	var server *api.Server
	if st != nil {
		server = a.newServer(st, "web")
	} else {
		server = a.newServer(nil, "web")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, addr)
	})
	if st != nil && !c.NoStats {
		reporter := stats.NewReporter(st, stats.DefaultInterval, a.logger)
		g.Go(func() error {
			return reporter.Run(ctx)
		})
	}
	return g.Wait()
}

type LambdaCmd struct{}

func (c *LambdaCmd) Run(a *app) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	adapter := serverless.New(a.newServer(st, "lambda").Handler(), a.logger)
	a.logger.Info("starting lambda handler")
	lambda.Start(adapter.Handle)
	return nil
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(a *app) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	version, err := st.MigrationVersion()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	a.logger.Info("database migrated", "path", a.cfg.DatabasePath, "version", version)
	return nil
}
