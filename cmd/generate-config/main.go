package main

import (
	"fmt"
	"os"

	"github.com/debemdeboas/inkwell/internal/config"
	"gopkg.in/yaml.v3"
)

const header = `# Inkwell configuration example
# Copy this file to config.yaml and customize as needed.
#
# Secrets are read from the environment (or a .env file) and never from this file:
#   INKWELL_TOKEN          anti-forgery token shared with editor clients
#   PHOTOS_ACCESS_KEY      photo search API key
#   S3_ACCESS_KEY_ID       S3 credentials when storage.backend is s3
#   S3_SECRET_ACCESS_KEY

`

func main() {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}
	output := header + string(yamlData)

	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}
