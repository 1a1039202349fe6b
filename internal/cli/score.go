package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/spf13/cobra"

	"github.com/kirillkom/proofpack-health/internal/config"
	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/core/packhealth"
	"github.com/kirillkom/proofpack-health/internal/core/usecase"
)

type scoreFlags struct {
	documents  string
	gaps       string
	asOf       string
	configPath string
}

func (f *scoreFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.documents, "documents", "d", "", "JSON file with a documents array (- for stdin)")
	cmd.Flags().StringVarP(&f.gaps, "gaps", "g", "", "JSON file with gaps and their statuses, - for stdin (default: derived from documents)")
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "Score as of an RFC 3339 timestamp or YYYY-MM-DD date")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Scoring YAML file (default: $SCORING_CONFIG_PATH or built-in)")
	_ = cmd.MarkFlagRequired("documents")
}

func newScoreCmd() *cobra.Command {
	var flags scoreFlags
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a proof pack from a JSON file",
		Long:  "Score documents offline and print the report (score, gaps, remediation actions) as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := flags.report(cmd.InOrStdin())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	flags.register(cmd)
	return cmd
}

func (f *scoreFlags) report(stdin io.Reader) (*domain.PackHealthReport, error) {
	if f.documents == "-" && f.gaps == "-" {
		return nil, errors.New("--documents and --gaps cannot both read from stdin")
	}
	configPath := f.configPath
	if configPath == "" {
		configPath = os.Getenv("SCORING_CONFIG_PATH")
	}
	scoring, err := config.LoadScoring(configPath)
	if err != nil {
		return nil, err
	}
	engine, err := packhealth.NewEngine(scoring.Engine)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(f.asOf) != "" {
		var asOf time.Time
		if err := runtime.BindStringToObject(strings.TrimSpace(f.asOf), &asOf); err != nil {
			return nil, fmt.Errorf("--as-of must be RFC 3339 or YYYY-MM-DD: %w", err)
		}
		engine = engine.At(asOf.UTC())
	}

	var docs []domain.Document
	if err := readJSON(f.documents, stdin, &docs); err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	var gaps []domain.GapItem
	if f.gaps != "" {
		gaps = []domain.GapItem{}
		if err := readJSON(f.gaps, stdin, &gaps); err != nil {
			return nil, fmt.Errorf("read gaps: %w", err)
		}
	}

	return usecase.PreviewPackHealth(engine, docs, gaps)
}

func readJSON(path string, stdin io.Reader, dst any) error {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(dst)
}
