// Command articlemeta-genconfig writes a runtime configuration file built
// from the environment: MONGODB_HOST (default 127.0.0.1:27017) selects the
// articlemeta database, ADMIN_TOKEN sets the admin token (random when
// unset) and the server port is 8000.
//
// Flags:
//
//	--template  YAML file providing the remaining settings (default: defaults + env)
//	--out       output path (default: articlemeta.yaml)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/scieloorg/articlemeta/internal/config"
)

func main() {
	templateFlag := flag.String("template", "", "YAML file providing the remaining settings")
	outFlag := flag.String("out", "articlemeta.yaml", "output path")
	flag.Parse()

	var (
		base *config.Config
		err  error
	)
	if *templateFlag != "" {
		base, err = config.LoadFile(*templateFlag)
	} else {
		base, err = config.Load()
	}
	if err != nil {
		log.Fatalf("load template: %v", err)
	}

	cfg := config.Generate(*base, os.Getenv)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("generated config is invalid: %v", err)
	}
	if err := config.WriteFile(*outFlag, cfg); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("wrote %s (dsn %s, port %d)", *outFlag, cfg.Database.DSN, cfg.Server.Port)
}
