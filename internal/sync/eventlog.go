package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const (
	TypeResultRecorded = "ResultRecorded"
	TypeResultDeleted  = "ResultDeleted"
)

type Event struct {
	Offset    int64  `json:"offset"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct {
	db     *sql.DB
	siteID string
	now    func() time.Time
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID, now: time.Now}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, r.now().Unix())
	return err
}

// Since returns events with offset > after, oldest first.
func (r *EventRepo) Since(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT "offset", site_id, typ, key, data, created_at
		 FROM event_log WHERE "offset" > $1 ORDER BY "offset" LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func resultKey(id int64) string { return "quiz_result:" + strconv.FormatInt(id, 10) }

// ResultRecorded logs a persisted result so other sites can replay it.
func (r *EventRepo) ResultRecorded(ctx context.Context, res quiz.Result) error {
	buf, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return r.Append(ctx, Event{Type: TypeResultRecorded, Key: resultKey(res.ID), DataJSON: string(buf)})
}

func (r *EventRepo) ResultDeleted(ctx context.Context, id int64) error {
	return r.Append(ctx, Event{Type: TypeResultDeleted, Key: resultKey(id), DataJSON: "{}"})
}
