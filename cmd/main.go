package main

import (
	"context"
	"fmt"
	"os"

	"github.com/SimonSchneider/tmval/internal/tmval"
)

func main() {
	if err := tmval.Run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr, os.Getenv, os.Getwd); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
