// Command docagent answers questions about an indexed document collection
// with an LLM agent that can search documents and analyze images.
//
// Usage:
//
//	docagent ask "What is in the Q4 report?" --config config.yaml
//	docagent chat
//	docagent serve --addr :8080
//	docagent tools
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/atakanozcan/docagent/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Ask     AskCmd     `cmd:"" help:"Answer a single question and exit."`
	Chat    ChatCmd    `cmd:"" help:"Interactive question-answering session."`
	Tools   ToolsCmd   `cmd:"" help:"List the available tools."`
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP API server."`
	Schema  SchemaCmd  `cmd:"" help:"Generate JSON Schema for the configuration."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// initLogger wires slog from the CLI flags. In chat mode logging defaults to
// a file so the REPL output stays clean.
func initLogger(cli *CLI, chatMode bool) (func(), error) {
	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logFile := cli.LogFile
	if logFile == "" && chatMode {
		logFile = "docagent.log"
	}

	if logFile == "" {
		logger.Init(level, os.Stderr, cli.LogFormat)
		return nil, nil
	}

	file, cleanup, err := logger.OpenLogFile(logFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.Init(level, file, cli.LogFormat)
	return cleanup, nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("docagent"),
		kong.Description("Document question-answering agent with hybrid search and image analysis."),
		kong.UsageOnError(),
	)

	cleanup, err := initLogger(&cli, ctx.Command() == "chat")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
