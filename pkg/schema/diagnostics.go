package schema

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Diagnostic aggregates repeated occurrences of the same violation.
type Diagnostic struct {
	Schema    string    `json:"schema"`
	Path      string    `json:"path"`
	Expected  string    `json:"expected"`
	Received  string    `json:"received"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// DiagnosticLog keeps the violations that were absorbed by a fallback so they
// remain visible after the response has been served. When full, the entry seen
// least recently is dropped.
type DiagnosticLog struct {
	mu       sync.Mutex
	entries  map[string]*Diagnostic
	capacity int
	now      func() time.Time
}

// NewDiagnosticLog creates a log holding at most capacity distinct entries.
func NewDiagnosticLog(capacity int) *DiagnosticLog {
	if capacity <= 0 {
		capacity = 256
	}
	return &DiagnosticLog{
		entries:  make(map[string]*Diagnostic),
		capacity: capacity,
		now:      time.Now,
	}
}

// Record adds violations reported for the named schema.
func (d *DiagnosticLog) Record(schemaName string, violations []Violation) {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, v := range violations {
		key := d.generateKey(schemaName, v)
		if entry, ok := d.entries[key]; ok {
			entry.Count++
			entry.LastSeen = now
			continue
		}
		if len(d.entries) >= d.capacity {
			d.evictOldest()
		}
		d.entries[key] = &Diagnostic{
			Schema:    schemaName,
			Path:      v.Path,
			Expected:  v.Expected,
			Received:  v.Received,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
}

// Entries returns a copy of the log, most recently seen first.
func (d *DiagnosticLog) Entries() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Diagnostic, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].Path < out[j].Path
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out
}

// Len returns the number of distinct diagnostics held.
func (d *DiagnosticLog) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func (d *DiagnosticLog) generateKey(schemaName string, v Violation) string {
	data, _ := json.Marshal(struct {
		Schema string    `json:"schema"`
		V      Violation `json:"v"`
	}{schemaName, v})
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func (d *DiagnosticLog) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, e := range d.entries {
		if oldestKey == "" || e.LastSeen.Before(oldest) {
			oldestKey = key
			oldest = e.LastSeen
		}
	}
	if oldestKey != "" {
		delete(d.entries, oldestKey)
	}
}
