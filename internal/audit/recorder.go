// Package audit journals scheduling decisions for later inspection.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/store"
)

// Recorder writes decision records to the journal.
type Recorder struct {
	store *store.Store
}

// NewRecorder creates a new recorder.
func NewRecorder(s *store.Store) *Recorder {
	return &Recorder{store: s}
}

// Record writes a decision for a state-mutating action and returns its id.
// A "worker_id" string in inputs is lifted into its own column.
func (r *Recorder) Record(action string, inputs map[string]interface{}, outcome, taskID, details string) (string, error) {
	workerID, _ := inputs["worker_id"].(string)
	d, err := r.store.WriteDecision(action, hashInputs(inputs), outcome, taskID, workerID, details)
	if err != nil {
		return "", err
	}
	return d.ID, nil
}

// List returns recent decisions.
func (r *Recorder) List(f store.DecisionFilter) ([]models.Decision, error) {
	return r.store.ListDecisions(f)
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
