package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"accreditation-questionnaire-service/internal/domain"
	"accreditation-questionnaire-service/internal/schema"
	"github.com/spf13/cobra"
)

// NewValidateCmd checks a JSON answers document against every section offline.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <answers.json>",
		Short: "Validate a questionnaire answers file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return validateAnswers(cmd.OutOrStdout(), data, time.Now())
		},
	}
}

func validateAnswers(out io.Writer, data []byte, now time.Time) error {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode answers: %w", err)
	}

	schemas := schema.Default()
	_, failures := schemas.ValidateDocument(doc, now)
	if len(failures) == 0 {
		fmt.Fprintln(out, "all sections valid")
		return nil
	}

	for _, sec := range schemas.Sections() {
		errs, ok := failures[sec.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "section %d (%s):\n", sec.ID, sec.Key)
		names := make([]string, 0, len(errs))
		for name := range errs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %s: %s\n", name, errs[name])
		}
	}
	return fmt.Errorf("%d of %d sections invalid", len(failures), domain.SectionCount)
}
