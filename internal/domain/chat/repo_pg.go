package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthguard/assistant/internal/platform/db"
	"github.com/healthguard/assistant/pkg/pagination"
)

type logRepoPG struct {
	pool *pgxpool.Pool
}

func NewLogRepo(pool *pgxpool.Pool) LogRepository {
	return &logRepoPG{pool: pool}
}

func (r *logRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *logRepoPG) Append(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO chat_history (id, patient_id, user_message, bot_response, "timestamp")
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.PatientID, rec.UserMessage, rec.BotResponse, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert chat record: %w", err)
	}
	return nil
}

func (r *logRepoPG) Search(ctx context.Context, patientID, keyword string, page pagination.Params) ([]*Record, error) {
	page = pagination.Clamp(page.Limit, page.Offset, SearchLimit, SearchLimit)

	query := `SELECT id, patient_id, user_message, bot_response, "timestamp" FROM chat_history WHERE patient_id = $1`
	args := []any{patientID}
	if keyword != "" {
		args = append(args, "%"+escapeLike(keyword)+"%")
		query += fmt.Sprintf(` AND user_message ILIKE $%d ESCAPE '\'`, len(args))
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(` ORDER BY "timestamp" DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search chat records: %w", err)
	}
	defer rows.Close()

	out := make([]*Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.UserMessage, &rec.BotResponse, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes keyword match literally inside a LIKE pattern.
func escapeLike(keyword string) string {
	return likeEscaper.Replace(keyword)
}
