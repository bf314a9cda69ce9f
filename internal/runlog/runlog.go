// Package runlog keeps a CSV record of every statement processed in a
// workspace.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Action names.
const (
	ActionProcess = "process"
	ActionAnalyze = "analyze"
	ActionRecalc  = "recalc"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp    time.Time
	Source       string
	Profile      string
	Action       string
	Transactions int
	Excluded     int
	CommitHash   string
}

// Header is the CSV header for run-log.csv.
const Header = "timestamp,source,profile,action,transactions,excluded,commit_hash"

const (
	numFields       = 7
	logDir          = "logs"
	logFile         = "logs/run-log.csv"
	colTimestamp    = 0
	colSource       = 1
	colProfile      = 2
	colAction       = 3
	colTransactions = 4
	colExcluded     = 5
	colCommitHash   = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colSource] = e.Source
	row[colProfile] = e.Profile
	row[colAction] = e.Action
	row[colTransactions] = strconv.Itoa(e.Transactions)
	row[colExcluded] = strconv.Itoa(e.Excluded)
	row[colCommitHash] = e.CommitHash
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	txns, err := strconv.Atoi(record[colTransactions])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing transactions %q: %w", record[colTransactions], err)
	}
	excluded, err := strconv.Atoi(record[colExcluded])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing excluded %q: %w", record[colExcluded], err)
	}

	return Entry{
		Timestamp:    ts,
		Source:       record[colSource],
		Profile:      record[colProfile],
		Action:       record[colAction],
		Transactions: txns,
		Excluded:     excluded,
		CommitHash:   record[colCommitHash],
	}, nil
}

// Append writes entries to <root>/logs/run-log.csv, creating the file and
// header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	if err := writeEntries(f, entries, needsHeader); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing run log: %w", err)
	}
	return nil
}

func writeEntries(w io.Writer, entries []Entry, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/run-log.csv.
// Returns nil if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
