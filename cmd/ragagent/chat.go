package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/smallnest/ragagent/agent"
)

var sessionFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question answering session",
	Long: `Start an interactive conversation. The agent searches the indexed
documents when it needs them and keeps the conversation in the configured
store.

Commands:
  exit, quit, sair, q   leave
  clear, limpar         forget the conversation and start a new session

Examples:
  ragagent chat
  ragagent chat --session support-42`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&sessionFlag, "session", "", "Session id to resume (default: a new session)")
	rootCmd.AddCommand(chatCmd)
}

type replCommand int

const (
	replMessage replCommand = iota
	replSkip
	replExit
	replClear
)

func parseCommand(input string) replCommand {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return replSkip
	case "exit", "quit", "sair", "q":
		return replExit
	case "clear", "limpar":
		return replClear
	default:
		return replMessage
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	session, err := a.newSession(ctx)
	if err != nil {
		return err
	}

	sessionID := sessionFlag
	if sessionID == "" {
		sessionID = agent.NewSessionID()
	}

	fmt.Println(bannerStyle.Render(titleStyle.Render("ragagent") + "\n" +
		infoStyle.Render(fmt.Sprintf("model %s/%s · session %s", a.cfg.Model.Provider, a.cfg.Model.Name, sessionID)) + "\n" +
		infoStyle.Render("type 'exit' to leave, 'clear' to start over")))

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".ragagent_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36myou>\033[0m ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	// Ctrl+C cancels the running turn, not the program.
	var (
		mu        sync.Mutex
		reqCancel context.CancelFunc
	)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			mu.Lock()
			if reqCancel != nil {
				reqCancel()
			}
			mu.Unlock()
		}
	}()

	for {
		input, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Println(infoStyle.Render("bye"))
				return nil
			}
			return err
		}

		switch parseCommand(input) {
		case replSkip:
			continue
		case replExit:
			fmt.Println(infoStyle.Render("bye"))
			return nil
		case replClear:
			if err := session.Reset(ctx, sessionID); err != nil {
				fmt.Println(errorStyle.Render("error: " + err.Error()))
				continue
			}
			sessionID = agent.NewSessionID()
			fmt.Println(infoStyle.Render("conversation cleared, new session " + sessionID))
			continue
		}

		reqCtx, cancel := context.WithCancel(ctx)
		mu.Lock()
		reqCancel = cancel
		mu.Unlock()

		fmt.Print("\n" + agentStyle.Render("agent>") + " ")
		final := printStream(os.Stdout, session.Stream(reqCtx, sessionID, input))

		mu.Lock()
		reqCancel = nil
		mu.Unlock()
		interrupted := reqCtx.Err() != nil
		cancel()

		switch {
		case final.Err != nil && interrupted:
			fmt.Println(warnStyle.Render("(interrupted)"))
		case final.Err != nil:
			fmt.Println(errorStyle.Render("error: " + final.Err.Error()))
		case final.Outcome != agent.KindNone:
			fmt.Println(warnStyle.Render("(" + final.Outcome.String() + ")"))
		}
		fmt.Println()
	}
}

const (
	saveCursor      = "\0337"
	restoreAndClear = "\0338\033[J"
)

// printStream writes deltas to w as they arrive and returns the final
// fragment. Text withdrawn by a Reset fragment is erased from the terminal.
func printStream(w io.Writer, fragments <-chan agent.Fragment) agent.Fragment {
	var final agent.Fragment
	fmt.Fprint(w, saveCursor)
	for f := range fragments {
		switch {
		case f.Done:
			final = f
		case f.Reset:
			fmt.Fprint(w, restoreAndClear)
		default:
			fmt.Fprint(w, f.Delta)
		}
	}
	fmt.Fprintln(w)
	return final
}
