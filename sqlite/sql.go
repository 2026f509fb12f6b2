package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hoshinonyaruko/snake-loop/structs"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"
)

var ErrNoRecords = errors.New("no finished games recorded")

const createGamesTableSQL = `
CREATE TABLE IF NOT EXISTS Games (
    ID INTEGER PRIMARY KEY AUTOINCREMENT,
    Score INTEGER NOT NULL,
    FinalSpeed REAL NOT NULL,
    BoardWidth INTEGER NOT NULL,
    BoardHeight INTEGER NOT NULL,
    Ticks INTEGER NOT NULL,
    StartedAt INTEGER NOT NULL,
    EndedAt INTEGER NOT NULL
);
`

const createScoreIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_games_score ON Games (Score DESC, EndedAt);
`

// Storage 保存已结束的游戏记录
type Storage struct {
	Connection *sql.DB
}

func New(path string) (*Storage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

// Init 建表
func (s *Storage) Init(ctx context.Context) error {
	for _, stmt := range []string{createGamesTableSQL, createScoreIndexSQL} {
		if _, err := s.Connection.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error executing SQL statement %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Storage) Close() error {
	return s.Connection.Close()
}

// InsertGameRecord 写入一局游戏，返回新记录的ID
func (s *Storage) InsertGameRecord(ctx context.Context, rec structs.GameRecord) (int64, error) {
	// 开启事务
	tx, err := s.Connection.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO Games (Score, FinalSpeed, BoardWidth, BoardHeight, Ticks, StartedAt, EndedAt) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.Score, rec.FinalSpeed, rec.BoardWidth, rec.BoardHeight, rec.Ticks, rec.StartedAt.UnixMilli(), rec.EndedAt.UnixMilli())
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("insert game record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	// 提交事务
	return id, tx.Commit()
}

// TopScores 按分数从高到低返回最多 limit 条记录
func (s *Storage) TopScores(ctx context.Context, limit int) ([]structs.GameRecord, error) {
	return s.query(ctx,
		"SELECT ID, Score, FinalSpeed, BoardWidth, BoardHeight, Ticks, StartedAt, EndedAt FROM Games ORDER BY Score DESC, EndedAt ASC LIMIT ?",
		limit)
}

// RecentGames 按结束时间从新到旧返回
func (s *Storage) RecentGames(ctx context.Context, limit int) ([]structs.GameRecord, error) {
	return s.query(ctx,
		"SELECT ID, Score, FinalSpeed, BoardWidth, BoardHeight, Ticks, StartedAt, EndedAt FROM Games ORDER BY EndedAt DESC, ID DESC LIMIT ?",
		limit)
}

// BestScore 历史最高分，没有记录时返回 ErrNoRecords
func (s *Storage) BestScore(ctx context.Context) (int, error) {
	var best sql.NullInt64
	if err := s.Connection.QueryRowContext(ctx, "SELECT MAX(Score) FROM Games").Scan(&best); err != nil {
		return 0, err
	}
	if !best.Valid {
		return 0, ErrNoRecords
	}
	return int(best.Int64), nil
}

func (s *Storage) query(ctx context.Context, query string, args ...any) ([]structs.GameRecord, error) {
	rows, err := s.Connection.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []structs.GameRecord{}
	for rows.Next() {
		var rec structs.GameRecord
		var startedAt, endedAt int64
		if err := rows.Scan(&rec.ID, &rec.Score, &rec.FinalSpeed, &rec.BoardWidth, &rec.BoardHeight, &rec.Ticks, &startedAt, &endedAt); err != nil {
			return nil, err
		}
		rec.StartedAt = time.UnixMilli(startedAt)
		rec.EndedAt = time.UnixMilli(endedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}
