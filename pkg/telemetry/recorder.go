// Package telemetry writes aim and fire history to CSV for offline tuning.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
)

// File names inside the telemetry directory.
const (
	AimFile  = "aim.csv"
	FireFile = "fires.csv"
)

// Recorder buffers records and appends them to CSV files in batches.
// A nil *Recorder is valid and discards everything.
type Recorder struct {
	mu         sync.Mutex
	dir        string
	flushEvery int

	aimFile  *os.File
	fireFile *os.File

	aim   []AimRecord
	fires []FireRecord

	// Track if headers have been written
	aimHeaderWritten  bool
	fireHeaderWritten bool
}

// NewRecorder creates dir and opens the CSV files in it.
// Returns nil if dir is empty (telemetry disabled).
func NewRecorder(dir string, flushEvery int) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if flushEvery <= 0 {
		flushEvery = 1
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}

	r := &Recorder{dir: dir, flushEvery: flushEvery}

	f, err := os.Create(filepath.Join(dir, AimFile))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", AimFile, err)
	}
	r.aimFile = f

	f, err = os.Create(filepath.Join(dir, FireFile))
	if err != nil {
		r.aimFile.Close()
		return nil, fmt.Errorf("creating %s: %w", FireFile, err)
	}
	r.fireFile = f

	return r, nil
}

// Dir returns the output directory.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// Record queues an aim record, writing the batch once it is full.
func (r *Recorder) Record(rec AimRecord) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.aim = append(r.aim, rec)
	if len(r.aim) < r.flushEvery {
		return nil
	}
	return r.flushAim()
}

// RecordFire queues a fire record. Fire batches use the same size as aim batches.
func (r *Recorder) RecordFire(rec FireRecord) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fires = append(r.fires, rec)
	if len(r.fires) < r.flushEvery {
		return nil
	}
	return r.flushFires()
}

// Flush writes any buffered records.
func (r *Recorder) Flush() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushAim(); err != nil {
		return err
	}
	return r.flushFires()
}

// Close flushes and closes both files.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	flushErr := r.Flush()

	r.mu.Lock()
	defer r.mu.Unlock()
	aimErr := r.aimFile.Close()
	fireErr := r.fireFile.Close()

	switch {
	case flushErr != nil:
		return flushErr
	case aimErr != nil:
		return aimErr
	default:
		return fireErr
	}
}

func (r *Recorder) flushAim() error {
	if len(r.aim) == 0 {
		return nil
	}
	if !r.aimHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(r.aim, r.aimFile); err != nil {
			return fmt.Errorf("writing aim telemetry: %w", err)
		}
		r.aimHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(r.aim, r.aimFile); err != nil {
			return fmt.Errorf("writing aim telemetry: %w", err)
		}
	}
	r.aim = r.aim[:0]
	return nil
}

func (r *Recorder) flushFires() error {
	if len(r.fires) == 0 {
		return nil
	}
	if !r.fireHeaderWritten {
		if err := gocsv.Marshal(r.fires, r.fireFile); err != nil {
			return fmt.Errorf("writing fire telemetry: %w", err)
		}
		r.fireHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(r.fires, r.fireFile); err != nil {
			return fmt.Errorf("writing fire telemetry: %w", err)
		}
	}
	r.fires = r.fires[:0]
	return nil
}

// ReadAim loads every record from an aim.csv file.
func ReadAim(path string) ([]AimRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recs []AimRecord
	if err := gocsv.UnmarshalFile(f, &recs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return recs, nil
}

// ReadFires loads every record from a fires.csv file.
func ReadFires(path string) ([]FireRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recs []FireRecord
	if err := gocsv.UnmarshalFile(f, &recs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return recs, nil
}
