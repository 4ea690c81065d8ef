// Command sdtt tests the structured data of web pages.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/leofalp/sdtt/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
