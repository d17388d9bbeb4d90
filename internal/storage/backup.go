package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/dates"
)

// ExportFileName names a backup taken at now.
func ExportFileName(now time.Time) string {
	return "lifeboard-backup-" + dates.Key(now) + ".json"
}

// Export writes doc as indented JSON.
func Export(w io.Writer, doc appdata.AppData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Import reads a backup. The whole input must parse; on any error no
// document is returned. Older backups are migrated to the current
// schema.
func Import(r io.Reader) (appdata.AppData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return appdata.AppData{}, fmt.Errorf("import: %w", err)
	}
	doc, err := appdata.Migrate(raw)
	if err != nil {
		return appdata.AppData{}, fmt.Errorf("import: %w", err)
	}
	return doc, nil
}

// ExportFile writes a backup to path, replacing any existing file.
func ExportFile(path string, doc appdata.AppData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := Export(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ImportFile reads a backup from path.
func ImportFile(path string) (appdata.AppData, error) {
	f, err := os.Open(path)
	if err != nil {
		return appdata.AppData{}, fmt.Errorf("import: %w", err)
	}
	defer f.Close()
	return Import(f)
}
