package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/db"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// SQLiteInteractionRepo implements InteractionRepo using a SQLite database.
type SQLiteInteractionRepo struct {
	db db.DBTX
}

// NewSQLiteInteractionRepo creates a new SQLiteInteractionRepo.
func NewSQLiteInteractionRepo(db db.DBTX) *SQLiteInteractionRepo {
	return &SQLiteInteractionRepo{db: db}
}

const interactionColumns = `id, session_id, user_id, stage, user_input, session_context, ai_response,
	input_tokens, output_tokens, cost_usd, status, error_message, feedback_helpful, created_at`

func (r *SQLiteInteractionRepo) Create(ctx context.Context, i *domain.Interaction) (int64, error) {
	snapshot, err := json.Marshal(i.ContextSnapshot)
	if err != nil {
		return 0, fmt.Errorf("encoding session context: %w", err)
	}
	if i.ContextSnapshot == nil {
		snapshot = []byte("{}")
	}
	if i.Status == "" {
		i.Status = domain.InteractionOK
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO interactions (session_id, user_id, stage, user_input, session_context, ai_response,
		input_tokens, output_tokens, cost_usd, status, error_message, feedback_helpful, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		i.SessionID,
		i.UserID,
		string(i.Stage),
		i.UserInput,
		string(snapshot),
		i.ResponseText,
		i.InputTokens,
		i.OutputTokens,
		i.CostUSD,
		string(i.Status),
		i.ErrorMessage,
		nullableBoolToValue(i.FeedbackHelpful),
		formatTime(i.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting interaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading interaction id: %w", err)
	}
	i.ID = id
	return id, nil
}

func (r *SQLiteInteractionRepo) GetByID(ctx context.Context, id int64) (*domain.Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	i, err := scanInteraction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("interaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning interaction: %w", err)
	}
	return i, nil
}

func (r *SQLiteInteractionRepo) ListBySession(ctx context.Context, sessionID string) ([]*domain.Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE session_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing interactions by session: %w", err)
	}
	defer rows.Close()

	var out []*domain.Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning interaction row: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteInteractionRepo) SetFeedback(ctx context.Context, sessionID string, id int64, helpful bool) (bool, error) {
	query := `UPDATE interactions SET feedback_helpful = ? WHERE id = ? AND session_id = ?`
	res, err := r.db.ExecContext(ctx, query, boolToInt(helpful), id, sessionID)
	if err != nil {
		return false, fmt.Errorf("updating feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteInteractionRepo) UsageSince(ctx context.Context, userID string, since time.Time) (domain.DailyUsage, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(cost_usd), 0) FROM interactions
		WHERE user_id = ? AND created_at >= ?`
	var usage domain.DailyUsage
	err := r.db.QueryRowContext(ctx, query, userID, formatTime(since)).Scan(&usage.Requests, &usage.CostUSD)
	if err != nil {
		return domain.DailyUsage{}, fmt.Errorf("aggregating daily usage: %w", err)
	}
	return usage, nil
}

func (r *SQLiteInteractionRepo) UsageFor(ctx context.Context, sessionID string) (domain.SessionUsage, error) {
	query := `SELECT stage, COUNT(*) FROM interactions WHERE session_id = ? GROUP BY stage`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return domain.SessionUsage{}, fmt.Errorf("aggregating session usage: %w", err)
	}
	defer rows.Close()

	usage := domain.SessionUsage{ByStage: make(map[domain.Stage]int)}
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return domain.SessionUsage{}, fmt.Errorf("scanning stage usage: %w", err)
		}
		usage.ByStage[domain.Stage(stage)] = n
		usage.Requests += n
	}
	if err := rows.Err(); err != nil {
		return domain.SessionUsage{}, fmt.Errorf("iterating stage usage: %w", err)
	}
	return usage, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row rowScanner) (*domain.Interaction, error) {
	var i domain.Interaction
	var stage, snapshot, status, createdAt string
	var feedback sql.NullInt64

	err := row.Scan(
		&i.ID, &i.SessionID, &i.UserID, &stage, &i.UserInput, &snapshot, &i.ResponseText,
		&i.InputTokens, &i.OutputTokens, &i.CostUSD, &status, &i.ErrorMessage, &feedback, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	i.Stage = domain.Stage(stage)
	i.Status = domain.InteractionStatus(status)
	i.FeedbackHelpful = parseNullableBool(feedback)
	if err := json.Unmarshal([]byte(snapshot), &i.ContextSnapshot); err != nil {
		return nil, fmt.Errorf("decoding session context: %w", err)
	}
	i.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &i, nil
}
