package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"calore-bot/cmd"
	"calore-bot/internal/chat"
	"calore-bot/internal/config"

	"github.com/schollz/progressbar/v3"
)

const banner = `CALORE Bot: ask about a dish, e.g. "ผัดไทยกี่แคล".
Commands: /reset starts a new conversation, /exit quits.`

// thinking shows a spinner on w until the returned stop func is called.
func thinking(w io.Writer) (stop func()) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Thinking..."),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func main() {
	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	// Keep log lines from interleaving with the conversation.
	logFile, err := cmd.SetupLogFile(cfg.LogDir, "chat-cli.log", io.Discard)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	orchestrator := cmd.NewChatComponents(cfg).Orchestrator
	session := chat.NewSession()

	fmt.Println(banner)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "/exit":
			return
		case "/reset":
			session = chat.NewSession()
			fmt.Println("Started a new conversation.")
			continue
		}

		done := thinking(os.Stderr)
		reply := orchestrator.Respond(ctx, session, text)
		done()

		fmt.Printf("%s\n\n", reply.Text)

		if ctx.Err() != nil {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("error reading input: %v", err)
	}
}
