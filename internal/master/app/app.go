package app

import (
	"context"
	"fmt"
	"time"

	"masterserver/internal/master/api/server"
	ur "masterserver/internal/master/repository/userrepo/postgres"
	"masterserver/internal/master/services/authservice"
	"masterserver/internal/master/services/userservice"
	"masterserver/internal/pkg/config"
	"masterserver/pkg/logger"
)

type Server interface {
	Start(context.Context) error
	Shutdown(context.Context) error
}

type MasterApp struct {
	s   Server
	us  *userservice.UserService
	lg  logger.Logger
	cfg config.Config
}

func New(ctx context.Context, cfg config.Config) (MasterApp, error) {
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return MasterApp{}, fmt.Errorf("can't get logger error: %w", err)
	}

	userRepo, err := ur.New(ctx, cfg.PostgresDB)
	if err != nil {
		return MasterApp{}, fmt.Errorf("postgres user repo initializing error: %w", err)
	}

	userService := userservice.New(userRepo, lg)
	authService := authservice.New(userRepo, cfg.Auth)

	s := server.New(cfg.Server, userService, authService, lg)

	return MasterApp{
		s:   s,
		us:  userService,
		lg:  lg,
		cfg: cfg,
	}, nil
}

func (ma *MasterApp) Run(ctx context.Context) {
	ma.lg.Infof("STARTED SERVER ON %s", ma.cfg.Server.Addr)

	go func() {
		if err := ma.s.Start(ctx); err != nil {
			ma.lg.Errorf("server start error: %s", err.Error())
			ctx.Done()

			return
		}
	}()

	<-ctx.Done()

	ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	if err := ma.Stop(ctxS); err != nil { //nolint:contextcheck
		ma.lg.Errorf("server shutdown error: %s", err.Error())
	}
}

func (ma *MasterApp) Stop(ctx context.Context) error {
	if err := ma.s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := ma.us.Shutdown(ctx); err != nil {
		return fmt.Errorf("user service shutdown error: %w", err)
	}

	ma.lg.Info("Shutdowned successfully")

	return nil
}
