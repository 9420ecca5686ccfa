// Command regviz plots registration progress and runs point-cloud accuracy
// checks against transforms described in JSON files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/regviz/internal/version"
)

type command struct {
	name  string
	usage string
	run   func(args []string, stdout io.Writer) error
}

var commands = []command{
	{"points", "generate uniform random points within bounds", runPoints},
	{"compare", "print the differences between two transforms", runCompare},
	{"scale", "plot the effect of scaling a transform's displacements", runScale},
	{"replay", "replay an optimizer event log through the progress observer", runReplay},
	{"runs", "list stored registration runs", runRuns},
	{"show", "plot a stored registration run", runShow},
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("regviz: ")

	if len(os.Args) < 2 {
		printHelp(os.Stderr)
		os.Exit(1)
	}
	name := os.Args[1]
	switch name {
	case "help", "-h", "--help":
		printHelp(os.Stdout)
		return
	case "version", "--version":
		fmt.Println(version.String())
		return
	}
	for _, c := range commands {
		if c.name == name {
			err := c.run(os.Args[2:], os.Stdout)
			if errors.Is(err, flag.ErrHelp) {
				return
			}
			if err != nil {
				log.Fatalf("%s: %v", name, err)
			}
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
	printHelp(os.Stderr)
	os.Exit(1)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: regviz <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(w, "  %-8s %s\n", "version", "print build information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'regviz <command> -h' for command flags.")
}
