package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/danmuck/cellctl/internal/logging"
	"github.com/danmuck/cellctl/internal/observability"
)

func main() {
	recordID := flag.String("id", "ConfigItem", "record identifier")
	value := flag.Int("value", 10, "initial record value")
	flag.Parse()

	logging.ConfigureRuntime()
	observability.RegisterMetrics()

	sh := newShell(*recordID, *value, logging.New("record"), os.Stdout)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "cellsh> ",
		HistoryFile:       ".cellsh-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cellsh: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()
	rl.CaptureExitSignal()

	fmt.Printf("cellsh inspecting record %q (value=%d); try help\n", *recordID, *value)
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "cellsh: %v\n", err)
			os.Exit(1)
		}
		if sh.dispatch(line) {
			break
		}
	}
}
