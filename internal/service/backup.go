package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/database"
	"github.com/jask/wizflow/internal/database/repository"
	"github.com/jask/wizflow/internal/prefs"
)

// BackupVersion is the only backup document version Restore accepts.
const BackupVersion = 1


type Backup struct {
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"createdAt"`
	Data      BackupData `json:"data"`
}

type BackupData struct {
	Snapshot
	Settings map[string]string `json:"settings"`
	// Attachments maps attachment URIs to base64 file contents.
	Attachments map[string]string `json:"attachments"`
}

// BackupService produces and restores whole-store backups.
type BackupService struct {
	BaseService
	DB  *sql.DB
	Now func() time.Time
}

func (s *BackupService) now() time.Time {
	if s.Now == nil {
		return database.Now()
	}
	return s.Now().UTC().Truncate(time.Millisecond)
}

// Create snapshots every account (archived included), category, transaction and setting.
// Attachment files that can be read are embedded; unreadable ones are logged and left out.
func (s *BackupService) Create(ctx context.Context) (Backup, error) {
	b := Backup{Version: BackupVersion, CreatedAt: s.now()}
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if b.Data.Accounts, err = repository.NewAccountRepo(tx).List(ctx, repository.AccountFilters{IncludeArchived: true}); err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		if b.Data.Categories, err = repository.NewCategoryRepo(tx).List(ctx, repository.CategoryFilters{}); err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		if b.Data.Transactions, err = repository.NewTransactionRepo(tx).List(ctx, repository.TransactionFilters{}); err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		if b.Data.Settings, err = repository.NewSettingsRepo(tx).All(ctx); err != nil {
			return fmt.Errorf("list settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return Backup{}, err
	}
	if b.Data.Accounts == nil {
		b.Data.Accounts = []repository.Account{}
	}
	if b.Data.Categories == nil {
		b.Data.Categories = []repository.Category{}
	}
	if b.Data.Transactions == nil {
		b.Data.Transactions = []repository.Transaction{}
	}
	if b.Data.Settings == nil {
		b.Data.Settings = map[string]string{}
	}
	b.Data.Settings[prefs.KeyLastBackupDate] = b.CreatedAt.Format(time.RFC3339Nano)

	b.Data.Attachments = map[string]string{}
	for _, t := range b.Data.Transactions {
		if t.AttachmentURI == nil {
			continue
		}
		uri := *t.AttachmentURI
		if _, done := b.Data.Attachments[uri]; done {
			continue
		}
		content, err := os.ReadFile(attachmentPath(uri))
		if err != nil {
			s.LogWarn(ctx, "skipping unreadable attachment", "uri", uri, "error", err)
			continue
		}
		b.Data.Attachments[uri] = base64.StdEncoding.EncodeToString(content)
	}
	s.LogInfo(ctx, "backup created",
		"accounts", len(b.Data.Accounts), "transactions", len(b.Data.Transactions), "attachments", len(b.Data.Attachments))
	return b, nil
}

// MarkBackedUp records b.CreatedAt as the last backup date. Call it once b has been
// written out.
func (s *BackupService) MarkBackedUp(ctx context.Context, b Backup) error {
	return repository.NewSettingsRepo(s.DB).Set(ctx, prefs.KeyLastBackupDate, b.CreatedAt.Format(time.RFC3339Nano))
}

// Write encodes b as indented JSON.
func (b Backup) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// ReadBackup decodes a backup document and checks its version.
func ReadBackup(r io.Reader) (Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Backup{}, apperrors.Validation("decode backup: %v", err)
	}
	if b.Version != BackupVersion {
		return Backup{}, apperrors.Validation("unsupported backup version %d", b.Version)
	}
	return b, nil
}

// Restore replaces the whole store with b: the schema is dropped and recreated, referenced
// attachments are written back without overwriting existing files, the records are bulk
// loaded and the settings are upserted. The drop is not undone if a later step fails.
func (s *BackupService) Restore(ctx context.Context, b Backup) error {
	if b.Version != BackupVersion {
		return apperrors.Validation("unsupported backup version %d", b.Version)
	}
	if err := database.ResetDatabase(ctx, s.DB); err != nil {
		return fmt.Errorf("reset database: %w", err)
	}
	if err := database.RunMigrations(s.DB); err != nil {
		return fmt.Errorf("recreate schema: %w", err)
	}

	s.restoreAttachments(ctx, b)

	loader := BulkLoader{BaseService: s.BaseService, DB: s.DB}
	if _, err := loader.Load(ctx, b.Data.Snapshot); err != nil {
		return err
	}
	if len(b.Data.Settings) > 0 {
		if err := repository.NewSettingsRepo(s.DB).SetMany(ctx, b.Data.Settings); err != nil {
			return fmt.Errorf("restore settings: %w", err)
		}
	}
	s.LogInfo(ctx, "backup restored", "created_at", b.CreatedAt)
	return nil
}

func attachmentPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// restoreAttachments writes back the embedded files that a restored transaction references.
// Targets must be absolute clean paths that do not exist yet; anything else is logged and
// skipped.
func (s *BackupService) restoreAttachments(ctx context.Context, b Backup) {
	referenced := map[string]bool{}
	for _, t := range b.Data.Transactions {
		if t.AttachmentURI != nil {
			referenced[*t.AttachmentURI] = true
		}
	}
	for uri, content := range b.Data.Attachments {
		if !referenced[uri] {
			s.LogWarn(ctx, "skipping unreferenced attachment", "uri", uri)
			continue
		}
		path := attachmentPath(uri)
		if !filepath.IsAbs(path) || filepath.Clean(path) != path {
			s.LogWarn(ctx, "skipping attachment with unsafe path", "uri", uri)
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(content)
		if err == nil {
			err = os.MkdirAll(filepath.Dir(path), 0o755)
		}
		if err == nil {
			err = writeNew(path, raw)
		}
		if err != nil {
			s.LogWarn(ctx, "failed to restore attachment", "uri", uri, "error", err)
		}
	}
}

// writeNew creates path with data and fails if it already exists.
func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
