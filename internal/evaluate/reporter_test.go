package evaluate

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResults(t *testing.T) *Results {
	t.Helper()
	ds := &Dataset{Samples: []Sample{sample(100, false), sample(5000, true), sample(50, true)}}
	res, err := NewEngine(amountClassifier{}, "test-1").Run(ds)
	require.NoError(t, err)
	return res
}

func TestReporter_GenerateReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports")
	r := NewReporter(testResults(t), out)

	require.NoError(t, r.GenerateReport())

	summary, err := os.ReadFile(filepath.Join(out, "evaluation_summary.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "MODEL EVALUATION SUMMARY")
	assert.Contains(t, string(summary), "Model Version: test-1")

	data, err := os.ReadFile(filepath.Join(out, "evaluation_results.json"))
	require.NoError(t, err)

	var report struct {
		Results Results `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 3, report.Results.Samples)
	assert.Equal(t, [2][2]int{{1, 0}, {1, 1}}, report.Results.Confusion)
}

func TestReporter_WriteSummary(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(testResults(t), "").WriteSummary(&buf)

	out := buf.String()
	assert.Contains(t, out, "Model Accuracy: 0.6667")
	assert.Contains(t, out, "Legit")
	assert.Contains(t, out, "Fraud")
	assert.Contains(t, out, "CONFUSION MATRIX")
}
