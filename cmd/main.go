package main

import (
	"os"

	"accreditation-questionnaire-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
