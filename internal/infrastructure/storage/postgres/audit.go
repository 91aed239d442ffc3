package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "fabriq/internal/core/context"
	"fabriq/internal/core/id"
	"fabriq/internal/core/tenant"
)

// AuditAction represents the type of audited operation.
type AuditAction string

const (
	AuditActionCreate   AuditAction = "create"
	AuditActionUpdate   AuditAction = "update"
	AuditActionDelete   AuditAction = "delete"
	AuditActionStatus   AuditAction = "status_change"
	AuditActionConvert  AuditAction = "convert"
	AuditActionDispatch AuditAction = "dispatch"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry represents a single audit log entry. Large snapshots (full
// document with lines) are stored zstd-compressed.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	TenantID          string          `db:"tenant_id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            AuditAction     `db:"action"`
	UserID            string          `db:"user_id"`
	UserEmail         string          `db:"user_email"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	Metadata          json.RawMessage `db:"metadata"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditService records who changed which document, when, and how.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Log records an audit entry. When called inside a transaction the entry
// commits or rolls back together with the business change.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if user := appctx.GetUser(ctx); user != nil {
		if entry.UserID == "" {
			entry.UserID = user.UserID
		}
		if entry.UserEmail == "" {
			entry.UserEmail = user.Email
		}
	}
	if entry.TenantID == "" {
		entry.TenantID = tenant.GetTenantID(ctx)
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) > s.compressThreshold {
		entry.ChangesCompressed = s.encoder.EncodeAll(entry.Changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO audit_log (
			id, tenant_id, entity_type, entity_id, action, user_id, user_email,
			changes, changes_compressed, compression_algo, metadata,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		entry.ID, entry.TenantID, entry.EntityType, entry.EntityID, entry.Action,
		entry.UserID, entry.UserEmail,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo,
		entry.Metadata, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// LogSnapshot marshals the entity and records it as the change payload.
func (s *AuditService) LogSnapshot(ctx context.Context, entityType string, entityID id.ID, action AuditAction, snapshot any) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}
	return s.Log(ctx, AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    payload,
	})
}

// Decompress returns the raw change payload of an entry.
func (s *AuditService) Decompress(entry AuditEntry) (json.RawMessage, error) {
	switch entry.CompressionAlgo {
	case CompressionZstd:
		raw, err := s.decoder.DecodeAll(entry.ChangesCompressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress audit changes: %w", err)
		}
		return raw, nil
	default:
		return entry.Changes, nil
	}
}

// History returns audit entries for an entity, newest first.
func (s *AuditService) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	sql := `
		SELECT id, tenant_id, entity_type, entity_id, action, user_id, user_email,
		       changes, changes_compressed, compression_algo, metadata, created_at
		FROM audit_log
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC
		LIMIT $4
	`

	querier := s.txManager.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, tenant.GetTenantID(ctx), entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.EntityType, &e.EntityID, &e.Action,
			&e.UserID, &e.UserEmail,
			&e.Changes, &e.ChangesCompressed, &e.CompressionAlgo,
			&e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
