package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"community-app/internal/models"
	"community-app/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// User Repository Implementation
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, role, profile_pic, created_at FROM users WHERE email = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.ProfilePic, &user.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}

	return user, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, username, email, role, profile_pic, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.Role, &user.ProfilePic, &user.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}

	return user, nil
}

func (db *PostgresDB) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, 'member', NOW())
		RETURNING id, username, email, role, created_at`

	user := &models.User{PasswordHash: string(hash)}
	err = db.pool.QueryRow(ctx, query, uuid.New().String(), req.Username, req.Email, string(hash)).Scan(
		&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (db *PostgresDB) GetAdminID(ctx context.Context) (string, error) {
	query := `SELECT id FROM users WHERE role = 'admin' LIMIT 1`

	var id string
	if err := db.pool.QueryRow(ctx, query).Scan(&id); err != nil {
		return "", mapNoRows(err)
	}
	return id, nil
}

// Message Repository Implementation
func (db *PostgresDB) SaveMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Type == "" {
		msg.Type = models.ContentTypeText
	}
	if msg.Status == "" {
		msg.Status = models.StatusSent
	}

	query := `
		INSERT INTO messages (id, sender_id, recipient_id, group_key, announcement_id, content, type, status, read, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, NOW())
		RETURNING created_at`

	err := db.pool.QueryRow(ctx, query,
		msg.ID, msg.Sender, msg.Recipient, msg.GroupKey, msg.AnnouncementID,
		msg.Content, msg.Type, msg.Status, msg.Read,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (db *PostgresDB) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	query := `
		SELECT id, sender_id, COALESCE(recipient_id, ''), COALESCE(group_key, ''),
		       COALESCE(announcement_id, ''), content, type, status, read, created_at
		FROM messages WHERE id = $1`

	msg := &models.Message{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.Sender, &msg.Recipient, &msg.GroupKey, &msg.AnnouncementID,
		&msg.Content, &msg.Type, &msg.Status, &msg.Read, &msg.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return msg, nil
}

func (db *PostgresDB) UpdateMessageStatus(ctx context.Context, id string, status models.MessageStatus) error {
	// The legacy read flag tracks the read status for older clients.
	query := `UPDATE messages SET status = $2, read = (read OR $2 = 'read') WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) DeleteMessage(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) ListDirectMessages(ctx context.Context, userA, userB string, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, sender_id, COALESCE(recipient_id, ''), COALESCE(group_key, ''),
		       COALESCE(announcement_id, ''), content, type, status, read, created_at
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at DESC
		LIMIT $3`

	return db.queryMessages(ctx, query, userA, userB, limit)
}

func (db *PostgresDB) ListGroupMessages(ctx context.Context, groupKey string, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, sender_id, COALESCE(recipient_id, ''), COALESCE(group_key, ''),
		       COALESCE(announcement_id, ''), content, type, status, read, created_at
		FROM messages
		WHERE group_key = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return db.queryMessages(ctx, query, groupKey, limit)
}

func (db *PostgresDB) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*models.Message, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(
			&msg.ID, &msg.Sender, &msg.Recipient, &msg.GroupKey, &msg.AnnouncementID,
			&msg.Content, &msg.Type, &msg.Status, &msg.Read, &msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Announcement Repository Implementation
func (db *PostgresDB) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	pollJSON, err := marshalPoll(a.Poll)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO announcements (id, title, content, link_code, file_url, file_type, file_name, poll, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at`

	err = db.pool.QueryRow(ctx, query,
		a.ID, a.Title, a.Content, a.LinkCode, a.FileURL, a.FileType, a.FileName, pollJSON, a.CreatedBy,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

func (db *PostgresDB) GetAnnouncementByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := `
		SELECT id, title, content, link_code, file_url, file_type, file_name, poll, created_by, created_at
		FROM announcements WHERE id = $1`

	return db.scanAnnouncement(db.pool.QueryRow(ctx, query, id))
}

func (db *PostgresDB) ListAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	query := `
		SELECT id, title, content, link_code, file_url, file_type, file_name, poll, created_by, created_at
		FROM announcements
		ORDER BY created_at DESC`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer rows.Close()

	var announcements []*models.Announcement
	for rows.Next() {
		a, err := db.scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

func (db *PostgresDB) DeleteAnnouncement(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) SavePoll(ctx context.Context, announcementID string, poll *models.Poll) error {
	pollJSON, err := marshalPoll(poll)
	if err != nil {
		return err
	}

	// Single-row write keeps counts and vote records consistent under
	// concurrent votes on the same poll.
	tag, err := db.pool.Exec(ctx, `UPDATE announcements SET poll = $2 WHERE id = $1`, announcementID, pollJSON)
	if err != nil {
		return fmt.Errorf("failed to save poll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (db *PostgresDB) scanAnnouncement(row rowScanner) (*models.Announcement, error) {
	a := &models.Announcement{}
	var pollJSON []byte
	err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.LinkCode, &a.FileURL, &a.FileType, &a.FileName,
		&pollJSON, &a.CreatedBy, &a.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if len(pollJSON) > 0 {
		poll := &models.Poll{}
		if err := json.Unmarshal(pollJSON, poll); err != nil {
			return nil, fmt.Errorf("failed to decode poll: %w", err)
		}
		a.Poll = poll
	}
	return a, nil
}

func marshalPoll(poll *models.Poll) ([]byte, error) {
	if poll == nil {
		return nil, nil
	}
	data, err := json.Marshal(poll)
	if err != nil {
		return nil, fmt.Errorf("failed to encode poll: %w", err)
	}
	return data, nil
}

// Meeting Repository Implementation
func (db *PostgresDB) CreateMeeting(ctx context.Context, m *models.Meeting) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	query := `
		INSERT INTO meetings (id, title, host_id, scheduled_time, code, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`

	err := db.pool.QueryRow(ctx, query, m.ID, m.Title, m.HostID, m.ScheduledTime, m.Code).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

func (db *PostgresDB) GetMeetingByCode(ctx context.Context, code string) (*models.Meeting, error) {
	query := `SELECT id, title, host_id, scheduled_time, code, created_at FROM meetings WHERE code = $1`

	m := &models.Meeting{}
	err := db.pool.QueryRow(ctx, query, code).Scan(
		&m.ID, &m.Title, &m.HostID, &m.ScheduledTime, &m.Code, &m.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return m, nil
}

func (db *PostgresDB) ListMeetings(ctx context.Context) ([]*models.Meeting, error) {
	query := `SELECT id, title, host_id, scheduled_time, code, created_at FROM meetings ORDER BY scheduled_time`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*models.Meeting
	for rows.Next() {
		m := &models.Meeting{}
		if err := rows.Scan(&m.ID, &m.Title, &m.HostID, &m.ScheduledTime, &m.Code, &m.CreatedAt); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}
