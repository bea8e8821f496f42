package services

import (
	"fmt"
	"os"
	"path/filepath"

	clamd "github.com/dutchcoders/go-clamd"
)

// ScanVerdict is the outcome of a virus scan.
type ScanVerdict struct {
	Infected  bool
	Signature string
}

// Scanner streams files to a clamd daemon.
type Scanner struct {
	client *clamd.Clamd
}

// NewScanner takes a clamd address such as tcp://clamav:3310.
func NewScanner(address string) *Scanner {
	return &Scanner{client: clamd.NewClamd(address)}
}

// Scan sends the file's bytes over the connection, so clamd does not need
// access to the storage root.
func (s *Scanner) Scan(path string) (ScanVerdict, error) {
	f, err := os.Open(filepath.FromSlash(path))
	if err != nil {
		return ScanVerdict{}, fmt.Errorf("failed to open %s for scanning: %w", path, err)
	}
	defer f.Close()

	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(f, abort)
	if err != nil {
		return ScanVerdict{}, fmt.Errorf("scan failed: %w", err)
	}

	var verdict ScanVerdict
	for res := range results {
		switch res.Status {
		case clamd.RES_FOUND:
			verdict.Infected = true
			verdict.Signature = res.Description
		case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
			return ScanVerdict{}, fmt.Errorf("clamd error: %s", res.Description)
		}
	}
	return verdict, nil
}

// CheckConnection pings the daemon.
func (s *Scanner) CheckConnection() error {
	return s.client.Ping()
}
