package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/atakanozcan/docagent/server"
)

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// AskCmd answers a single question and exits.
type AskCmd struct {
	Question string `arg:"" help:"The question to answer."`
}

func (c *AskCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := buildRuntime(ctx, cli.Config)
	if err != nil {
		return err
	}
	defer rt.Close()

	answer, err := rt.agent.AnswerQuestion(ctx, c.Question, nil)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	return nil
}

// ChatCmd runs an interactive question-answering session.
type ChatCmd struct{}

func (c *ChatCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := buildRuntime(ctx, cli.Config)
	if err != nil {
		return err
	}
	defer rt.Close()

	divider := strings.Repeat("=", 60)
	fmt.Println(divider)
	fmt.Println("Document Question Answering Agent")
	fmt.Println(divider)
	fmt.Printf("Provider: %s\n", strings.ToUpper(rt.cfg.LLM.Provider))
	fmt.Printf("Model: %s\n", rt.provider.GetModelName())
	fmt.Println()
	fmt.Println("Agent ready! Ask questions about documents (type 'quit' to exit)")
	fmt.Println(divider)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return nil
		case "":
			continue
		}

		answer, err := rt.agent.AnswerQuestion(ctx, question, nil)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("\nError: %v\n\n", err)
			fmt.Println(strings.Repeat("-", 60))
			fmt.Println()
			continue
		}

		fmt.Printf("\nAgent: %s\n\n", answer.Text)
		fmt.Println(strings.Repeat("-", 60))
		fmt.Println()
	}
}

// ToolsCmd lists the available tools.
type ToolsCmd struct{}

func (c *ToolsCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := buildRuntime(ctx, cli.Config)
	if err != nil {
		return err
	}
	defer rt.Close()

	infos := rt.registry.ListTools()
	fmt.Printf("Available tools (%d):\n\n", len(infos))
	for _, info := range infos {
		summary := info.Description
		if idx := strings.IndexByte(summary, '\n'); idx >= 0 {
			summary = summary[:idx]
		}
		fmt.Printf("  %s  [%s]\n      %s\n\n", info.Name, info.Source, summary)
	}
	return nil
}

// ServeCmd starts the HTTP API server.
type ServeCmd struct {
	Addr string `help:"Address to listen on." default:":8080"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := buildRuntime(ctx, cli.Config)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := server.New(rt.agent, rt.registry, c.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Stop(shutdownCtx)
	}
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("docagent version %s\n", version)
	return nil
}
