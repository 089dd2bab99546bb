package evaluate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Reporter generates evaluation reports
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a new reporter
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{
		results:    results,
		outputPath: outputPath,
	}
}

// GenerateReport writes the text summary and the JSON report.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}

	return r.generateJSONReport()
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, "evaluation_summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.WriteSummary(file)

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, "evaluation_results.json")

	report := map[string]interface{}{
		"results":      r.results,
		"generated_at": time.Now(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// WriteSummary writes a human-readable classification report.
func (r *Reporter) WriteSummary(w io.Writer) {
	res := r.results

	fmt.Fprintf(w, "MODEL EVALUATION SUMMARY\n")
	fmt.Fprintf(w, "========================\n\n")
	if res.Model != "" {
		fmt.Fprintf(w, "Model Version: %s\n", res.Model)
	}
	fmt.Fprintf(w, "Samples Scored: %d\n", res.Samples)
	fmt.Fprintf(w, "Rows Skipped: %d\n", res.Skipped)
	fmt.Fprintf(w, "Inference Failures: %d\n\n", res.Failures)

	fmt.Fprintf(w, "Model Accuracy: %.4f (%.2f%%)\n\n", res.Accuracy, res.Accuracy*100)

	fmt.Fprintf(w, "%-10s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range res.Classes {
		fmt.Fprintf(w, "%-10s %10.2f %10.2f %10.2f %10d\n", c.Name, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Fprintf(w, "%-10s %10s %10s %10.2f %10d\n\n", "macro avg", "", "", res.MacroF1, res.Samples)

	fmt.Fprintf(w, "CONFUSION MATRIX (rows = actual)\n")
	fmt.Fprintf(w, "--------------------------------\n")
	fmt.Fprintf(w, "%-10s %10s %10s\n", "", ClassNames[0], ClassNames[1])
	for i, row := range res.Confusion {
		fmt.Fprintf(w, "%-10s %10d %10d\n", ClassNames[i], row[0], row[1])
	}

	fmt.Fprintf(w, "\nMean risk score: legit %.4f, fraud %.4f\n", res.MeanScore[0], res.MeanScore[1])

	if len(res.Importance) > 0 {
		fmt.Fprintf(w, "\nPERMUTATION IMPORTANCE\n")
		fmt.Fprintf(w, "----------------------\n")
		for _, fi := range res.Importance {
			fmt.Fprintf(w, "%-28s %8.4f\n", fi.Feature, fi.PermutationScore)
		}
	}
}

// PrintSummary prints a summary to console
func (r *Reporter) PrintSummary() {
	fmt.Println()
	r.WriteSummary(os.Stdout)
}
