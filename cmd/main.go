package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/dubmyyt/internal/app"
	"github.com/yungbote/dubmyyt/internal/platform/shutdown"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		a.Log.Error("start failed", "error", err)
		a.Close()
		os.Exit(1)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := a.Run(ctx); err != nil {
		a.Log.Error("server exited", "error", err)
		a.Close()
		os.Exit(1)
	}
}
