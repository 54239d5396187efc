//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Ingest groups targets that run the CLI against arXiv.
type Ingest mg.Namespace

// Rebuild fetches the last 7 days and replaces data/papers.json.
func (Ingest) Rebuild() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), "rebuild")
}

// DryRun fetches the last 7 days without writing anything.
func (Ingest) DryRun() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "rebuild", "--dry-run")
}

// Clock reports drift between the local clock and arXiv's.
func (Ingest) Clock() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "clock")
}

// Ping probes the search API and the listing page.
func (Ingest) Ping() error {
	mg.Deps(Build)
	if err := sh.RunV(binPath(), "ping", "--mode", "api"); err != nil {
		return err
	}
	return sh.RunV(binPath(), "ping", "--mode", "html")
}

// Serve runs the HTTP server on :8080.
func (Ingest) Serve() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), "serve")
}
