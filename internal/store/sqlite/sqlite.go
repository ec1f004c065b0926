package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/robertorios/pangeaConversations/internal/store"
)

// schema is applied on startup. The two UNIQUE constraints carry the core
// invariants: one conversation per participant pair, one seq per message
// within a conversation.
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	participant_low  INTEGER NOT NULL,
	participant_high INTEGER NOT NULL,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (participant_low, participant_high),
	CHECK (participant_low < participant_high)
);

CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id INTEGER NOT NULL,
	seq             INTEGER NOT NULL,
	sender_id       INTEGER NOT NULL,
	receiver_id     INTEGER NOT NULL,
	text            TEXT NOT NULL,
	read_at         DATETIME,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (conversation_id, seq),
	FOREIGN KEY (conversation_id) REFERENCES conversations(id)
);

CREATE TABLE IF NOT EXISTS push_tokens (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	token      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, token)
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation_seq
	ON messages(conversation_id, seq);
CREATE INDEX IF NOT EXISTS idx_conversations_updated
	ON conversations(updated_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply an alternate schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; this also serializes
	// per-conversation seq assignment at the storage layer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== ConversationStore implementation ====

// FindOrCreateConversation returns the conversation for the ordered pair,
// creating it if needed. The UNIQUE constraint plus re-select makes the
// operation safe when two creators race: at most one row ever exists.
func (s *SQLiteStore) FindOrCreateConversation(ctx context.Context, low, high int64) (*store.Conversation, error) {
	conv, err := s.GetConversation(ctx, low, high)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing conversation: %w", err)
	}

	insert := `
		INSERT INTO conversations (participant_low, participant_high)
		VALUES (?, ?)
		ON CONFLICT (participant_low, participant_high) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, insert, low, high); err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	// Re-select regardless of whether our insert or a racing one won.
	conv, err = s.GetConversation(ctx, low, high)
	if err != nil {
		return nil, fmt.Errorf("reload conversation: %w", err)
	}
	return conv, nil
}

// GetConversation retrieves a conversation by the ordered pair.
func (s *SQLiteStore) GetConversation(ctx context.Context, low, high int64) (*store.Conversation, error) {
	query := `
		SELECT id, participant_low, participant_high, created_at, updated_at
		FROM conversations
		WHERE participant_low = ? AND participant_high = ?
	`
	var conv store.Conversation
	err := s.db.QueryRowContext(ctx, query, low, high).Scan(
		&conv.ID,
		&conv.ParticipantLow,
		&conv.ParticipantHigh,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	return &conv, nil
}

// ListUserConversations lists conversations the user participates in,
// most recently updated first.
func (s *SQLiteStore) ListUserConversations(ctx context.Context, userID int64, limit int) ([]*store.Conversation, error) {
	query := `
		SELECT id, participant_low, participant_high, created_at, updated_at
		FROM conversations
		WHERE participant_low = ? OR participant_high = ?
		ORDER BY updated_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var convs []*store.Conversation
	for rows.Next() {
		var conv store.Conversation
		if err := rows.Scan(&conv.ID, &conv.ParticipantLow, &conv.ParticipantHigh, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, &conv)
	}

	return convs, rows.Err()
}

// ==== MessageStore implementation ====

// AppendMessage assigns the next seq for the conversation and persists the
// message in the same transaction that advances updated_at. Rolling back
// on any failure means a failed append never consumes a seq value.
func (s *SQLiteStore) AppendMessage(ctx context.Context, conversationID, senderID, receiverID int64, text string) (*store.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()

	// Touching updated_at first doubles as the existence check: zero rows
	// means the conversation id is unknown.
	update := `UPDATE conversations SET updated_at = ? WHERE id = ?`
	updateResult, err := tx.ExecContext(ctx, update, now, conversationID)
	if err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}
	affected, err := updateResult.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	var seq int64
	seqQuery := `SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`
	if err := tx.QueryRowContext(ctx, seqQuery, conversationID).Scan(&seq); err != nil {
		return nil, fmt.Errorf("next seq: %w", err)
	}

	insert := `
		INSERT INTO messages (conversation_id, seq, sender_id, receiver_id, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, insert, conversationID, seq, senderID, receiverID, text, now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &store.Message{
		ID:             id,
		ConversationID: conversationID,
		Seq:            seq,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Text:           text,
		CreatedAt:      now,
	}, nil
}

// LatestMessage returns the message with the highest seq.
func (s *SQLiteStore) LatestMessage(ctx context.Context, conversationID int64) (*store.Message, error) {
	query := `
		SELECT id, conversation_id, seq, sender_id, receiver_id, text, read_at, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`
	msg, err := s.scanMessage(s.db.QueryRowContext(ctx, query, conversationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query latest message: %w", err)
	}
	return msg, nil
}

// ListMessages returns up to limit messages ordered by seq ascending.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID int64, limit int) ([]*store.Message, error) {
	query := `
		SELECT id, conversation_id, seq, sender_id, receiver_id, text, read_at, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY seq ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		msg, err := s.scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanMessage(row rowScanner) (*store.Message, error) {
	var msg store.Message
	var readAt sql.NullTime
	err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Seq,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Text,
		&readAt,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		msg.ReadAt = &readAt.Time
	}
	return &msg, nil
}

// ==== PushTokenStore implementation ====

// RegisterPushToken saves a device token for a user, ignoring duplicates.
func (s *SQLiteStore) RegisterPushToken(ctx context.Context, userID int64, token string) (*store.PushToken, error) {
	insert := `
		INSERT INTO push_tokens (user_id, token)
		VALUES (?, ?)
		ON CONFLICT (user_id, token) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, insert, userID, token); err != nil {
		return nil, fmt.Errorf("insert push token: %w", err)
	}

	query := `
		SELECT id, user_id, token, created_at
		FROM push_tokens
		WHERE user_id = ? AND token = ?
	`
	var pt store.PushToken
	err := s.db.QueryRowContext(ctx, query, userID, token).Scan(&pt.ID, &pt.UserID, &pt.Token, &pt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query push token: %w", err)
	}
	return &pt, nil
}

// ListPushTokens returns all tokens registered for a user.
func (s *SQLiteStore) ListPushTokens(ctx context.Context, userID int64) ([]*store.PushToken, error) {
	query := `
		SELECT id, user_id, token, created_at
		FROM push_tokens
		WHERE user_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*store.PushToken
	for rows.Next() {
		var pt store.PushToken
		if err := rows.Scan(&pt.ID, &pt.UserID, &pt.Token, &pt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push token: %w", err)
		}
		tokens = append(tokens, &pt)
	}

	return tokens, rows.Err()
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
