package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Record is one audit entry for a created campaign.
type Record struct {
	CampaignID uint64    `json:"campaign_id"`
	Custody    string    `json:"custody"`
	Creator    string    `json:"creator"`
	CreatedAt  time.Time `json:"created_at"`
}

// recordLog appends campaign records to a JSON file.
type recordLog struct {
	mu   sync.Mutex
	path string
}

func newRecordLog(path string) *recordLog {
	return &recordLog{path: path}
}

// Append adds a record to the log file.
func (l *recordLog) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("deploy: encoding records: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0600); err != nil {
		return fmt.Errorf("deploy: writing records: %w", err)
	}

	return nil
}

// Records returns all audit records in insertion order.
func (l *recordLog) Records() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// load reads the record file; a missing file is an empty log.
func (l *recordLog) load() ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("deploy: reading records: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("deploy: decoding records: %w", err)
	}
	return records, nil
}
