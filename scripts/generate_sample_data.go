package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"

	"fraud-scorer/internal/evaluate"
	"fraud-scorer/internal/features"
)

func main() {
	var (
		outPath   = flag.String("out", "data/transactions.csv", "Output CSV path")
		rows      = flag.Int("rows", 10000, "Number of transactions to generate")
		fraudRate = flag.Float64("fraud-rate", 0.05, "Share of fraudulent transactions")
		seed      = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating %d labelled transactions...\n", *rows)
	fmt.Printf("  Fraud Rate: %.2f\n", *fraudRate)
	fmt.Printf("  Output: %s\n", *outPath)

	file, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer file.Close()

	frauds, err := generateTransactions(file, *rows, *fraudRate, rand.New(rand.NewSource(*seed)))
	if err != nil {
		log.Fatalf("Failed to generate data: %v", err)
	}

	fmt.Printf("✓ Generated %d transactions (%d fraudulent)\n", *rows, frauds)
}

func generateTransactions(file *os.File, rows int, fraudRate float64, rng *rand.Rand) (int, error) {
	w := csv.NewWriter(file)

	header := append(features.Order[:], evaluate.LabelColumn)
	if err := w.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	frauds := 0
	for i := 0; i < rows; i++ {
		fraud := rng.Float64() < fraudRate
		var v features.Vector
		if fraud {
			frauds++
			v = features.Vector{
				math.Exp(6.5 + rng.NormFloat64()),     // amount, heavy tail
				math.Abs(2 + rng.NormFloat64()),       // deviation from usual spend
				clamp01(0.7 + 0.2*rng.NormFloat64()),  // unusual hour
				math.Abs(300 + 250*rng.NormFloat64()), // far from home
				clamp01(0.75 + 0.2*rng.NormFloat64()), // new merchant
				math.Abs(12 + 5*rng.NormFloat64()),    // bursty
			}
		} else {
			v = features.Vector{
				math.Exp(4 + rng.NormFloat64()),
				math.Abs(0.5 * rng.NormFloat64()),
				clamp01(0.2 + 0.15*rng.NormFloat64()),
				math.Abs(20 + 30*rng.NormFloat64()),
				clamp01(0.2 + 0.2*rng.NormFloat64()),
				math.Abs(4 + 2*rng.NormFloat64()),
			}
		}

		record := make([]string, 0, len(header))
		for _, x := range v {
			record = append(record, strconv.FormatFloat(x, 'f', 4, 64))
		}
		label := "0"
		if fraud {
			label = "1"
		}
		if err := w.Write(append(record, label)); err != nil {
			return frauds, fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return frauds, w.Error()
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}
