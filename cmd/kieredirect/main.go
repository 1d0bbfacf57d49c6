package main

import (
	"log"

	"github.com/jboss-openshift/openshift-kieserver/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ kieredirect failed to initialize: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ kieredirect failed to start: %v", err)
	}
}
