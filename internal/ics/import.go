package ics

import (
	"fmt"
	"os"

	appLog "eventdash/internal/log"
	"eventdash/internal/model"
)

// Importer is the part of the event store an import writes to.
type Importer interface {
	Import(ev model.Event) (model.Event, error)
}

// ImportFile parses path, expands it and inserts every resulting event into
// dst. Events the store rejects (invalid fields, an ID already present) are
// logged and skipped. It returns the number of events inserted.
func ImportFile(path string, dst Importer, cfg ExpandConfig) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open calendar: %w", err)
	}
	defer f.Close()

	entries, err := Parse(f, path)
	if err != nil {
		return 0, err
	}
	res, err := Expand(entries, cfg)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, ev := range res.Events {
		if _, err := dst.Import(ev); err != nil {
			appLog.Warn("ics event rejected", "source", path, "uid", ev.ID, "reason", err.Error())
			continue
		}
		imported++
	}
	appLog.Info("ics import completed", "source", path, "imported", imported, "skipped", len(res.Events)-imported)
	return imported, nil
}
