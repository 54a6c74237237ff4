package main

import (
	"log"
	"os"

	"github.com/trezcool/mazungumzo/core"
)

func main() {
	conf := core.NewConfig()

	cli := &commandLine{conf: conf}
	if err := cli.run(os.Args); err != nil {
		if err == errHelp {
			os.Exit(2)
		}
		log.Fatalf("%+v", err)
	}
}
