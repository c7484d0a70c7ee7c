package main

import (
	"fmt"
	"os"

	"github.com/roach88/bindery/internal/cli"

	// SQL drivers selectable via the driver:// scheme in bind URIs.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
