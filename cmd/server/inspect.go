package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/prasenjit/go-requester/internal/parser"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List the requests a document produces",
	Long: `Parses a Swagger 2 or OpenAPI 3 document and prints one line per operation
with its full URL and dedup id. With --bodies the generated example body is printed too.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var (
	inspectHost   string
	inspectBodies bool
)

func init() {
	inspectCmd.Flags().StringVar(&inspectHost, "host", "", "Override the host derived from the document")
	inspectCmd.Flags().BoolVar(&inspectBodies, "bodies", false, "Print generated example bodies")
}

func runInspect(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	result, err := parser.NewParser().Parse(string(content), inspectHost)
	if err != nil {
		return err
	}

	return printInspection(cmd.OutOrStdout(), result, inspectBodies)
}

func printInspection(out io.Writer, result *parser.ParseResult, bodies bool) error {
	doc := result.Document
	fmt.Fprintf(out, "%s %s (%d operations)\n", doc.Title, doc.Version, len(result.Operations))
	if doc.Host != "" {
		fmt.Fprintf(out, "Host: %s\n", doc.Host)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tURL\tBODY\tOPERATION\tID")
	for _, op := range result.Operations {
		body := "-"
		if op.Request.ContainBody() {
			body = "json"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", strings.ToUpper(op.Method), op.Request.FullURL(), body, op.OperationID, op.Request.HashID())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !bodies {
		return nil
	}
	for _, op := range result.Operations {
		if !op.Request.ContainBody() {
			continue
		}
		fmt.Fprintf(out, "\n%s %s\n%s\n", strings.ToUpper(op.Method), op.Path, op.Request.BodyStr())
	}
	return nil
}
