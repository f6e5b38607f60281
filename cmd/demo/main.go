package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-room-booking/internal/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: demo [create|cancel|deny-cancel|no-room|all]")
		os.Exit(1)
	}
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	name := os.Args[1]
	var targets []scenario
	if name == "all" {
		targets = scenarios
	} else {
		s, ok := findScenario(name)
		if !ok {
			fmt.Println("unknown scenario:", name)
			os.Exit(1)
		}
		targets = []scenario{s}
	}

	ctx := context.Background()
	failed := false
	for _, s := range targets {
		if err := s.run(ctx); err != nil {
			logger.Error("デモ失敗", zap.String("scenario", s.name), zap.Error(err))
			failed = true
			continue
		}
		logger.Info("デモ成功", zap.String("scenario", s.name))
	}
	if failed {
		os.Exit(1)
	}
}
