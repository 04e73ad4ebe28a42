package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jdefrancesco/tuneDitto/internal/tlog"
	"github.com/jdefrancesco/tuneDitto/internal/ui"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

// Version
const ver = "0.1.0"

func main() {
	// Setup signal handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for sig := range sigChan {
			signalHandler(cancel, sig)
		}
	}()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// signalHandler cancels the run so the scan, the player and the lock are
// all released on the way out.
func signalHandler(cancel context.CancelFunc, sig os.Signal) {
	tlog.Tlogger.Infof("Signal received: %v", sig)

	// Give the terminal back before we print anything.
	if ui.Program != nil {
		ui.Program.Quit()
	}

	switch sig {
	case syscall.SIGINT:
		fmt.Fprintf(os.Stderr, "\r[!] SIGINT! Quitting...\n")
	default:
		fmt.Fprintf(os.Stderr, "\r[!] %v received. Quitting...\n", sig)
	}
	cancel()
}

// showHeader prints colorful tuneDitto banner.
func showHeader() {

	fmt.Println("")

	_ = pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("tune", pterm.NewStyle(pterm.FgLightMagenta)),
		putils.LettersFromStringWithStyle("Ditto", pterm.NewStyle(pterm.FgLightWhite))).
		Render()
}

func showVersion() {
	fmt.Printf("Version: %s\n\n", ver)
}
