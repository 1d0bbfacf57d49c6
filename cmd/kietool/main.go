package main

import (
	"os"

	"github.com/jboss-openshift/openshift-kieserver/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
