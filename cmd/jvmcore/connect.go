package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/mattn/go-isatty"

	"github.com/daimatz/jvmcore/pkg/config"
	"github.com/daimatz/jvmcore/pkg/session"
)

func connectCmd(args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	sc, err := sessionConfig(cfg, args)
	if err != nil {
		return err
	}

	s := session.New(sc, &session.TCPDialer{Timeout: cfg.Session.DialTimeout.Duration}, func() (session.LineSource, error) {
		return session.NewLineReader(os.Stdin), nil
	})
	s.Logger = logger
	if interactive(os.Stdin) {
		s.Prompt = os.Stdout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := s.Run(ctx)
	if err != nil {
		return err
	}
	if res.CloseErr != nil {
		logger.Warn("release failed", "err", res.CloseErr)
	}
	fmt.Fprintf(os.Stderr, "sent %d lines, %d bytes (%d read failures, %d send failures)\n", res.Sent, res.BytesSent, res.ReadFailures, res.SendFailures)
	return nil
}

// sessionConfig merges the [session] settings with the optional address
// and port arguments.
func sessionConfig(cfg *config.Config, args []string) (session.Config, error) {
	sc := session.Config{
		Address:         cfg.Session.Address,
		Port:            cfg.Session.Port,
		Sentinel:        cfg.Session.Sentinel,
		MaxReadFailures: cfg.Session.MaxReadFailures,
	}
	if cfg.Session.Endpoint != "" {
		sc.Address, sc.Port = cfg.Session.Endpoint, 0
	}
	if len(args) > 0 {
		sc.Address = args[0]
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return sc, fmt.Errorf("connect: bad port %q", args[1])
		}
		sc.Port = port
	}
	if len(args) > 2 {
		return sc, fmt.Errorf("connect: too many arguments")
	}
	return sc, nil
}

func interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
