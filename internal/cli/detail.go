package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// DetailCommand prints the full record of one work.
type DetailCommand struct {
	ID string

	Books BookSource // defaults to the configured API client
	Out   io.Writer
}

func NewDetailCommand() *DetailCommand {
	return &DetailCommand{Out: os.Stdout}
}

func (cmd *DetailCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("detail", flag.ContinueOnError)

	fs.StringVar(&cmd.ID, "id", "", "Work id, e.g. OL45883W or /works/OL45883W (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s detail -id <work id>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the full record of a work.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(cmd.ID) == "" {
		return fmt.Errorf("required flag -id not provided")
	}
	return nil
}

func (cmd *DetailCommand) Run(ctx context.Context) error {
	if cmd.Books == nil {
		cmd.Books = newBookSource()
	}
	if cmd.Out == nil {
		cmd.Out = os.Stdout
	}

	detail, err := cmd.Books.GetDetail(ctx, cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", cmd.ID, err)
	}

	printDetail(cmd.Out, detail, nil, cmd.Books)
	return nil
}
