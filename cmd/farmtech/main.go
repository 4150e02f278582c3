// Command farmtech runs the irrigation monitor and its maintenance tasks.
package main

//	@title						FarmTech API
//	@version					0.1.0
//	@description				Farm irrigation monitor: sensor readings, irrigation decisions, analysis and simulated listeners.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Operator JWT. Format: "Bearer {token}"

import (
	"fmt"
	"os"

	_ "github.com/farmtech/irrigation/api/swagger"
	"github.com/farmtech/irrigation/internal/version"
)

const usageText = `usage: farmtech [command] [flags]

commands:
  serve     run the HTTP API server (default)
  setup     create directories, config, database and sample data
  check     verify configuration, database and secrets
  listen    run one simulated listener in the foreground
  token     issue an operator token for mutating API calls
  backup    snapshot the database into a tar.gz archive
  restore   restore a backup archive
  version   print version information

Run "farmtech <command> -h" for command flags.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		return runServe(nil)
	}

	switch args[0] {
	case "serve":
		return runServe(args[1:])
	case "setup":
		return runSetup(args[1:])
	case "check":
		return runCheck(args[1:])
	case "listen":
		return runListen(args[1:])
	case "token":
		return runToken(args[1:])
	case "backup":
		return runBackup(args[1:])
	case "restore":
		return runRestore(args[1:])
	case "version", "-version", "--version":
		fmt.Println(version.Info())
		return 0
	case "help", "-h", "--help":
		fmt.Print(usageText)
		return 0
	}

	// Bare flags such as "-config x.yaml" belong to serve.
	if len(args[0]) > 0 && args[0][0] == '-' {
		return runServe(args)
	}
	fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usageText)
	return 2
}
