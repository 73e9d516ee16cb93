// README: Schema migration CLI: migrate up | down [n] | version.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cast"

	"carebook/internal/config"
	"carebook/internal/infra"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	m, err := infra.NewMigrator(cfg.DB.MigrationsPath, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		n := 1
		if len(os.Args) > 2 {
			n = cast.ToInt(os.Args[2])
		}
		if n <= 0 {
			log.Fatalf("invalid step count %q", os.Args[2])
		}
		err = m.Down(n)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil {
			err = verr
			break
		}
		fmt.Printf("version %d dirty=%v\n", v, dirty)
	default:
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down [n] | version")
	os.Exit(2)
}
