package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/mrlokans/bookfinder/internal/search"
)

// SearchCommand runs one search and prints the results.
type SearchCommand struct {
	Query    string
	Pages    int
	PageSize int
	JSON     bool

	Books BookSource // defaults to the configured API client
	Out   io.Writer
}

func NewSearchCommand() *SearchCommand {
	return &SearchCommand{Out: os.Stdout}
}

func (cmd *SearchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)

	fs.StringVar(&cmd.Query, "q", "", "Search query: title, author or keywords (required)")
	fs.IntVar(&cmd.Pages, "pages", 1, "Number of pages to load")
	fs.IntVar(&cmd.PageSize, "page-size", search.DefaultPageSize, "Results per page")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the final search state as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s search -q <query> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Search the catalogue and print matching works.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s search -q dune\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s search -q \"ursula le guin\" -pages 3 -json\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if search.NormalizeQuery(cmd.Query) == "" {
		return fmt.Errorf("required flag -q not provided")
	}
	if cmd.Pages < 1 {
		return fmt.Errorf("-pages must be at least 1")
	}

	return nil
}

func (cmd *SearchCommand) Run(ctx context.Context) error {
	if cmd.Books == nil {
		cmd.Books = newBookSource()
	}
	if cmd.Out == nil {
		cmd.Out = os.Stdout
	}

	session := search.NewSession(cmd.Books, search.WithPageSize(cmd.PageSize))

	var bar *progressbar.ProgressBar
	if cmd.Pages > 1 && !cmd.JSON {
		bar = progressbar.NewOptions(cmd.Pages,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Loading pages"),
			progressbar.OptionClearOnFinish(),
		)
	}

	snap := session.StartSearch(ctx, cmd.Query)
	advance(bar)
	for page := 1; page < cmd.Pages && snap.HasMore; page++ {
		snap = session.LoadMore(ctx, snap.Query)
		advance(bar)
		if snap.State == search.StateErrored {
			break
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if cmd.JSON {
		enc := json.NewEncoder(cmd.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return err
		}
	} else {
		printResults(cmd.Out, snap.Results, 1)
		printStatus(cmd.Out, snap)
	}

	if snap.State == search.StateErrored {
		return fmt.Errorf("search failed: %s", snap.ErrorMessage)
	}
	return nil
}

func advance(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}
