package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/models"
)

// Version recorded in backup metadata.
const Version = "1.0.0"

// BackupKey names the backup written at ts.
func BackupKey(ts time.Time) string {
	return fmt.Sprintf("backup-%s.json", ts.UTC().Format("2006-01-02T15-04-05.000Z"))
}

// -----------------------------------------------------------------------------

// writeBackup stores the verbatim source map before any mutation.
func (e *Engine) writeBackup(ctx context.Context, raw []byte, total int, now time.Time) (string, error) {
	backup := models.MMigrationBackup{
		Timestamp:    now,
		OriginalData: json.RawMessage(raw),
		Metadata: models.MMigrationBackupMetadata{
			TotalEntries:     total,
			MigrationVersion: Version,
		},
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", helpers.NewMigrationError("encode backup", err)
	}

	key := BackupKey(now)
	if err := e.Backups.Put(ctx, key, data); err != nil {
		return "", helpers.NewMigrationError("write backup", err)
	}
	return key, nil
}
