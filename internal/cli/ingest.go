package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/posa/jerseyapp/internal/services/ingest"
)

// readInput reads file, or stdin when file is empty or "-"
func readInput(cmd *cobra.Command, file string) (string, error) {
	var (
		data []byte
		err  error
	)
	if file == "" || file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	return string(data), nil
}

func newIngestCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Send an email to the server for processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			var result EmailReceived
			if err := client.PostText("/api/v1/email/receive", raw, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Email file (default stdin)")

	return cmd
}

func newParseCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract registrants from an email locally, without a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			logger := slog.New(slog.DiscardHandler)
			if cfg.Verbose {
				logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
			}

			parsed := ingest.NewDefaultParser(logger).Parse(raw)
			NewOutput(cfg.Output).Print(parseResultFrom(parsed))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Email file (default stdin)")

	return cmd
}

func parseResultFrom(p *ingest.Parsed) ParseResult {
	res := ParseResult{
		Strategy:    p.Strategy,
		PromoCode:   p.PromoCode,
		Registrants: make([]Registrant, len(p.Registrants)),
		Skipped:     make([]Skipped, len(p.Skipped)),
		Filtered:    make([]Filtered, len(p.Filtered)),
	}
	for i, r := range p.Registrants {
		res.Registrants[i] = Registrant{
			FullName:    r.FullName,
			Program:     r.Program,
			Division:    r.Division,
			ParentEmail: r.ParentEmail,
			OrderNumber: r.OrderNumber,
			OrderDate:   r.OrderDate,
			Sport:       r.Sport,
			Season:      r.Season,
		}
	}
	for i, s := range p.Skipped {
		res.Skipped[i] = Skipped{Block: s.Block, Message: s.Message()}
	}
	for i, f := range p.Filtered {
		res.Filtered[i] = Filtered{Block: f.Block, Marker: f.Marker}
	}
	return res
}
