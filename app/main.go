package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/lysyi3m/glp1-survey/app/cfg"
)

func main() {
	if err := cfg.LoadDotEnv(".env"); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	var opts cfg.Options
	parser := newParser(&opts)

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

func newParser(opts *cfg.Options) *flags.Parser {
	parser := flags.NewParser(opts, flags.Default)
	parser.ShortDescription = "GLP-1 regulatory and news survey"

	parser.AddCommand("survey",
		"Run a survey",
		"Fetch every enabled source, diff against the previous snapshot and save the new one.",
		&surveyCommand{opts: opts})
	parser.AddCommand("search",
		"Search the last snapshot",
		"Search records of the last snapshot by free text and drug name. Drug names expand to their brands.",
		&searchCommand{opts: opts})
	parser.AddCommand("shortage",
		"Check drug shortages",
		"Fetch the shortage source and compare it with the last snapshot without saving.",
		&shortageCommand{opts: opts})
	parser.AddCommand("last-diff",
		"Show the last survey diff",
		"Print the diff report of the most recent survey run.",
		&lastDiffCommand{opts: opts})
	parser.AddCommand("runs",
		"List survey runs",
		"List recorded survey runs, newest first.",
		&runsCommand{opts: opts})
	parser.AddCommand("serve",
		"Start the HTTP API",
		"Serve the survey commands over HTTP.",
		&serveCommand{opts: opts})
	parser.AddCommand("version",
		"Show version",
		"Print the build version.",
		&versionCommand{})

	return parser
}
