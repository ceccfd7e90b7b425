package audit

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Identity lifecycle actions recorded by handlers.
const (
	ActionUserRegistered     = "user.registered"
	ActionUserConfirmed      = "user.confirmed"
	ActionCompanyCreated     = "company.created"
	ActionCompanyDeleted     = "company.deleted"
	ActionInvitationCreated  = "invitation.created"
	ActionInvitationAccepted = "invitation.accepted"
	ActionInvitationRevoked  = "invitation.revoked"
)

type Entry struct {
	ID           string                 `json:"id"`
	CompanyID    string                 `json:"company_id"`
	UserID       string                 `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    int64                  `json:"created_at"`
}

type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Record writes the entry asynchronously; auditing never blocks or fails a
// request.
func (l *Logger) Record(companyID, userID, action, resourceType, resourceID string, metadata map[string]interface{}) {
	entry := &Entry{
		ID:           "audit_" + uuid.NewString(),
		CompanyID:    companyID,
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now().Unix(),
	}

	go func() {
		metaJSON, _ := json.Marshal(entry.Metadata)
		_, err := l.db.Exec(`
			INSERT INTO audit_logs (id, company_id, user_id, action, resource_type, resource_id, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.ID, entry.CompanyID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID, string(metaJSON), entry.CreatedAt)
		if err != nil {
			log.Error().Err(err).Str("action", action).Msg("audit write failed")
		}
	}()
}

func (l *Logger) ListByCompany(companyID string, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, company_id, user_id, action, resource_type, resource_id, metadata, created_at
		FROM audit_logs WHERE company_id = ? ORDER BY created_at DESC LIMIT ?
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		var metaJSON string
		if err := rows.Scan(&entry.ID, &entry.CompanyID, &entry.UserID, &entry.Action, &entry.ResourceType, &entry.ResourceID, &metaJSON, &entry.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(metaJSON), &entry.Metadata)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
