package main

import (
	"context"
	"log"
	"os"

	"windykator/internal/buildinfo"
	"windykator/internal/config"
	"windykator/internal/server"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
