package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/benz9527/xrbtree/config"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		fmt.Printf("Usage of rbtree:\n%s", config.Usage())
		return
	}
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	newApp(cfg, console{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}).Run()
}
