// Command powerfleet は発電所フリート監視サービスを起動する。
//
// サブコマンド: serve（既定）, worker, migrate, healthcheck
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hitoshi/powerfleet/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "powerfleet: %v\n", err)
		os.Exit(1)
	}
}
