package main

import (
	"context"
	"flag"
	"github.com/golang/glog"
	"github.com/luckfunc/ticketBot/internal/bot"
	"github.com/luckfunc/ticketBot/internal/config"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	flag.Set("logtostderr", "true")
	flag.Parse()
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".env")
	if err != nil {
		glog.Errorf("Error loading config: %v", err)
		glog.Flush()
		os.Exit(1)
	}

	if err := bot.Run(ctx, cfg); err != nil {
		glog.Errorf("Error running bot: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}
