package main

import (
	"context"
	"log"
	"os"

	"github.com/anfelyns/Password-Guardian-sub000/internal/buildinfo"
	"github.com/anfelyns/Password-Guardian-sub000/internal/client/cli"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	srv, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer srv.Close()

	app := cli.NewApp(srv.AuthService, srv.SecretService)
	app.Run(ctx)
}
