package main

import (
	"embed"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/blocktree/pkg/config"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load(os.Getenv("BLOCKTREE_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg, os.Stderr)

	app := NewApp(cfg, logger)

	err = wails.Run(&options.App{
		Title:     "blocktree",
		Width:     1280,
		Height:    800,
		MinWidth:  640,
		MinHeight: 480,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logger.Error("wails run failed", "err", err)
		os.Exit(1)
	}
}
