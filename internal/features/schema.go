// Package features owns the transaction feature schema. The order declared in
// Order is the order the classifier was trained on; both the artifact export and
// online inference are checked against it.
package features

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// SchemaVersion is bumped whenever Order changes.
const SchemaVersion = "1"

// Feature names, as they appear in request payloads and training data.
const (
	TransactionAmount          = "transactionAmount"
	TransactionAmountDeviation = "transactionAmountDeviation"
	TimeAnomaly                = "timeAnomaly"
	LocationDistance           = "locationDistance"
	MerchantNovelty            = "merchantNovelty"
	TransactionFrequency       = "transactionFrequency"
)

// Count is the length of every feature vector.
const Count = 6

// Order is the canonical training order.
var Order = [Count]string{
	TransactionAmount,
	TransactionAmountDeviation,
	TimeAnomaly,
	LocationDistance,
	MerchantNovelty,
	TransactionFrequency,
}

// SchemaChecksum fingerprints Order and SchemaVersion.
var SchemaChecksum = checksum(Order[:], SchemaVersion)

func checksum(names []string, version string) string {
	sum := sha256.Sum256([]byte("v" + version + ":" + strings.Join(names, ",")))
	return hex.EncodeToString(sum[:])
}

// SchemaError reports a mismatch between a trained feature list and Order.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "feature schema mismatch: " + e.Reason
}

// VerifySchema checks that names (and version, when non-empty) match the
// canonical schema exactly, position by position.
func VerifySchema(names []string, version string) error {
	if version != "" && version != SchemaVersion {
		return &SchemaError{Reason: fmt.Sprintf("schema version %q, expected %q", version, SchemaVersion)}
	}
	if len(names) != Count {
		return &SchemaError{Reason: fmt.Sprintf("got %d features, expected %d", len(names), Count)}
	}
	for i, name := range names {
		if name != Order[i] {
			return &SchemaError{Reason: fmt.Sprintf("position %d is %q, expected %q", i, name, Order[i])}
		}
	}
	return nil
}

// Index returns the position of name in Order, or -1.
func Index(name string) int {
	for i, n := range Order {
		if n == name {
			return i
		}
	}
	return -1
}
