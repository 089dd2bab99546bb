package evaluate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fraud-scorer/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "transactionAmount,transactionAmountDeviation,timeAnomaly,locationDistance,merchantNovelty,transactionFrequency,fraud\n"

func TestReadCSV(t *testing.T) {
	data := header +
		"150.50,0.25,0.3,25,0.2,5,0\n" +
		"5000,3,0.95,800,0.9,20,1\n"

	ds, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, ds.Samples, 2)
	assert.Equal(t, 0, ds.Skipped)

	assert.Equal(t, features.Vector{150.50, 0.25, 0.3, 25, 0.2, 5}, ds.Samples[0].Vector)
	assert.False(t, ds.Samples[0].Fraud)
	assert.Equal(t, 2, ds.Samples[0].Line)
	assert.True(t, ds.Samples[1].Fraud)
	assert.Equal(t, 3, ds.Samples[1].Line)
}

func TestReadCSV_ColumnOrderIndependent(t *testing.T) {
	data := "fraud,transactionFrequency,merchantNovelty,locationDistance,timeAnomaly,transactionAmountDeviation,transactionAmount,extra\n" +
		"1.0,20,0.9,800,0.95,3,5000,ignored\n"

	ds, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, ds.Samples, 1)
	assert.Equal(t, features.Vector{5000, 3, 0.95, 800, 0.9, 20}, ds.Samples[0].Vector)
	assert.True(t, ds.Samples[0].Fraud)
}

func TestReadCSV_SkipsBadRows(t *testing.T) {
	data := header +
		"150.50,0.25,0.3,25,0.2,5,0\n" +
		"abc,0.25,0.3,25,0.2,5,0\n" + // not a number
		"150.50,0.25,0.3,25,0.2,5,maybe\n" + // bad label
		"150.50,0.25,0.3\n" + // short row
		"NaN,0.25,0.3,25,0.2,5,1\n" + // not finite
		"10,0.1,0.1,1,0.1,1,true\n"

	ds, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, ds.Samples, 2)
	assert.Equal(t, 4, ds.Skipped)
	assert.True(t, ds.Samples[1].Fraud)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	data := "transactionAmount,timeAnomaly,fraud\n1,0.5,0\n"

	_, err := ReadCSV(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"150.50,0.25,0.3,25,0.2,5,0\n"), 0o644))

	ds, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Len(t, ds.Samples, 1)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"1", true, false},
		{" 1.0 ", true, false},
		{"TRUE", true, false},
		{"0", false, false},
		{"0.0", false, false},
		{"false", false, false},
		{"2", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLabel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
