package main

import (
	"fmt"
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe()
	case "sync":
		err = runSync(os.Args[2:])
	case "runs":
		err = runRuns(os.Args[2:])
	case "version":
		fmt.Printf("notionpub %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`notionpub - A blog served from a Notion database, built with Go, Echo, and templ

Usage:
  notionpub <command> [arguments]

Commands:
  serve         Run the web server
  sync          Fetch all posts once and print them
  runs          Show the sync journal
  version       Print the notionpub version
  help          Show this help message

Configuration is read from .env and the environment (NOTION_PAGE_ID,
NOTION_TOKEN, SITE_URL, ...). See SiteConfig for the full list.

Examples:
  notionpub serve
  notionpub sync -json
  notionpub runs -n 20`)
}
