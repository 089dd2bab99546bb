package evaluate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fraud-scorer/internal/features"

	"github.com/rs/zerolog/log"
)

// LabelColumn holds the ground truth: 0 = legit, 1 = fraud.
const LabelColumn = "fraud"

// Sample is one labelled transaction.
type Sample struct {
	Line   int
	Vector features.Vector
	Fraud  bool
}

// Dataset is a labelled CSV loaded into memory.
type Dataset struct {
	Samples []Sample
	Skipped int
}

// LoadCSV loads a labelled dataset from a CSV file.
func LoadCSV(filePath string) (*Dataset, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	ds, err := ReadCSV(file)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file", filePath).
		Int("samples", len(ds.Samples)).
		Int("skipped", ds.Skipped).
		Msg("CSV data loaded successfully")

	return ds, nil
}

// ReadCSV reads a header row naming the six feature columns and the label
// column, in any order, followed by data rows. Rows that fail to parse are
// skipped and counted.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Map header indices
	indices := make(map[string]int, len(header))
	for i, col := range header {
		indices[strings.TrimSpace(col)] = i
	}
	for _, name := range append(features.Order[:], LabelColumn) {
		if _, ok := indices[name]; !ok {
			return nil, fmt.Errorf("CSV header is missing column %q", name)
		}
	}

	ds := &Dataset{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Warn().Err(err).Int("line", line).Msg("skipping malformed row")
				ds.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		sample, err := parseRecord(record, indices)
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("skipping row")
			ds.Skipped++
			continue
		}
		sample.Line = line
		ds.Samples = append(ds.Samples, sample)
	}

	return ds, nil
}

func parseRecord(record []string, indices map[string]int) (Sample, error) {
	values := make(map[string]float64, features.Count)
	for _, name := range features.Order {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[indices[name]]), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("column %s: %w", name, err)
		}
		values[name] = v
	}

	vector, err := features.FromRecord(values)
	if err != nil {
		return Sample{}, err
	}
	if err := vector.Finite(); err != nil {
		return Sample{}, err
	}

	fraud, err := parseLabel(record[indices[LabelColumn]])
	if err != nil {
		return Sample{}, err
	}

	return Sample{Vector: vector, Fraud: fraud}, nil
}

func parseLabel(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "1.0", "true":
		return true, nil
	case "0", "0.0", "false":
		return false, nil
	}
	return false, fmt.Errorf("column %s: invalid label %q", LabelColumn, v)
}
