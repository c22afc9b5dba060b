// Command burnoutbuddy は職場のバーンアウト相談サービスを起動する。
//
//	burnoutbuddy [serve|worker|migrate|metrics|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/burnoutbuddy/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "burnoutbuddy: %v\n", err)
		os.Exit(1)
	}
}
