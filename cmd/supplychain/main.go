// Command supplychain decomposes a supply-chain order log into relations and
// runs the fixed analytical reports over them.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
