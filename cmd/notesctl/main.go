package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"notes-server/internal/client"
	"notes-server/internal/logging"
)

func main() {
	serverURL := flag.String("server", "http://localhost:5000", "Server URL")
	tokenFile := flag.String("token-file", defaultTokenFile(), "Where the access token is kept between runs")
	logLevel := flag.String("log-level", "warn", "Log level")

	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &app{
		api:       client.NewClient(*serverURL),
		log:       logging.New(*logLevel, "text"),
		tokenFile: *tokenFile,
		out:       os.Stdout,
		in:        os.Stdin,
	}

	if err := app.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".notesctl-token"
	}
	return filepath.Join(home, ".notesctl-token")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: notesctl [flags] <command> [args]

Commands:
  register -u <username> -e <email>   Create an account
  login -u <username>                 Sign in and remember the token
  list [-search <text>] [-favorites]  Show notes
  add -title <t> -content <c> [-tags a,b]
  fav <id>                            Toggle favorite
  rm <id>                             Delete a note
  stats                               Show statistics
  watch                               Print changes made by other sessions

Flags:
`)
	flag.PrintDefaults()
}
