package main

import (
	"log"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/trezcool/tirgul/core"
)

func main() {
	flags := pflag.NewFlagSet("api", pflag.ExitOnError)
	flags.String("server.address", ":8000", "address the API listens on")
	flags.String("server.debugHost", ":4000", "address of the debug server (pprof, expvar)")
	flags.String("database.engine", "postgres", `storage engine: "postgres" or "inmem"`)
	flags.Bool("debug", false, "debug mode")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	v := viper.New()
	// only flags set explicitly override the environment
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			if err := v.BindPFlag(f.Name, f); err != nil {
				log.Fatal(err)
			}
		}
	})

	startWithDig(func() *core.Config { return core.NewConfigFrom(v) })
}
