package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/mrlokans/bookfinder/internal/search"
)

const shellHelp = `Any line not starting with / is a search query.

Commands:
  /more       load the next page of results
  /open <n>   show the full record of result n
  /status     show the current search state
  /help       show this help
  /quit       leave the shell
`

// ShellCommand is an interactive search session in the terminal.
type ShellCommand struct {
	PageSize    int
	HistoryFile string

	Books BookSource // defaults to the configured API client
	Out   io.Writer

	session *search.Session
}

func NewShellCommand() *ShellCommand {
	return &ShellCommand{Out: os.Stdout}
}

func (cmd *ShellCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)

	home, _ := os.UserHomeDir()
	fs.IntVar(&cmd.PageSize, "page-size", search.DefaultPageSize, "Results per page")
	fs.StringVar(&cmd.HistoryFile, "history", filepath.Join(home, ".bookfinder_history"), "Command history file (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s shell [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Search interactively. Type a query to search, '/help' for commands.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ShellCommand) setup() {
	if cmd.Books == nil {
		cmd.Books = newBookSource()
	}
	if cmd.Out == nil {
		cmd.Out = os.Stdout
	}
	if cmd.session == nil {
		cmd.session = search.NewSession(cmd.Books, search.WithPageSize(cmd.PageSize))
	}
}

func (cmd *ShellCommand) Run(ctx context.Context) error {
	cmd.setup()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if cmd.HistoryFile != "" {
		if f, err := os.Open(cmd.HistoryFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
		defer cmd.saveHistory(line)
	}

	fmt.Fprintln(cmd.Out, "Bookfinder shell. Type a title, author or keywords; '/help' lists commands.")
	for {
		input, err := line.Prompt("bookfinder> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(cmd.Out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if quit := cmd.Execute(ctx, input); quit {
			return nil
		}
	}
}

func (cmd *ShellCommand) saveHistory(line *liner.State) {
	f, err := os.Create(cmd.HistoryFile)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}

// Execute runs one line of input and reports whether the shell should exit.
// Commands start with a slash so that any query, "help" or "open water"
// included, can be searched as typed.
func (cmd *ShellCommand) Execute(ctx context.Context, input string) bool {
	cmd.setup()

	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		snap := cmd.session.StartSearch(ctx, input)
		printResults(cmd.Out, snap.Results, 1)
		printStatus(cmd.Out, snap)
		return false
	}

	word, rest, _ := strings.Cut(input[1:], " ")
	switch strings.ToLower(word) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(cmd.Out, shellHelp)
	case "status":
		printStatus(cmd.Out, cmd.session.Snapshot())
	case "more":
		cmd.more(ctx)
	case "open":
		cmd.open(ctx, strings.TrimSpace(rest))
	default:
		fmt.Fprintf(cmd.Out, "Unknown command %q; /help lists commands.\n", "/"+word)
	}
	return false
}

func (cmd *ShellCommand) more(ctx context.Context) {
	before := cmd.session.Snapshot()
	if !before.HasMore {
		if before.State == search.StateIdle {
			fmt.Fprintln(cmd.Out, "No search yet.")
		} else {
			fmt.Fprintln(cmd.Out, "No more results.")
		}
		return
	}

	snap := cmd.session.LoadMore(ctx, before.Query)
	if len(snap.Results) > len(before.Results) {
		printResults(cmd.Out, snap.Results[len(before.Results):], len(before.Results)+1)
	}
	printStatus(cmd.Out, snap)
}

func (cmd *ShellCommand) open(ctx context.Context, arg string) {
	snap := cmd.session.Snapshot()
	if len(snap.Results) == 0 {
		fmt.Fprintln(cmd.Out, "No results to open.")
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(snap.Results) {
		fmt.Fprintf(cmd.Out, "Usage: /open <n>, where n is between 1 and %d\n", len(snap.Results))
		return
	}

	summary := snap.Results[n-1]
	detail, err := cmd.Books.GetDetail(ctx, summary.Key)
	if err != nil {
		fmt.Fprintf(cmd.Out, "Error: %v\n", err)
		return
	}
	printDetail(cmd.Out, detail, &summary, cmd.Books)
}
