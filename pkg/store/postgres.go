package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"avlmap/pkg/apperrors"
	"avlmap/pkg/schema"
)

const tableName = "approved_vendor_list"

// PostgresConfig holds connection settings for the PostgreSQL store.
type PostgresConfig struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Postgres is a Store backed by PostgreSQL.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects to PostgreSQL and makes sure the AVL table exists.
func NewPostgres(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime == 0 {
		poolConfig.MaxConnLifetime = time.Hour
	}
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if poolConfig.MaxConnIdleTime == 0 {
		poolConfig.MaxConnIdleTime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Postgres{pool: pool, logger: logger.Named("store")}
	if err := p.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) ensureTable(ctx context.Context) error {
	cols := make([]string, 0, schema.FieldCount)
	for _, c := range schema.ColumnNames() {
		cols = append(cols, c+" TEXT")
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL,
			item_id UUID PRIMARY KEY,
			%s,
			date_added TEXT NOT NULL
		)`, tableName, strings.Join(cols, ",\n\t\t\t"))

	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", tableName, err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, records []schema.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	cols := append([]string{"item_id"}, schema.ColumnNames()...)
	cols = append(cols, "date_added")
	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	date := today()
	batch := &pgx.Batch{}
	for _, rec := range records {
		args := make([]any, 0, len(cols))
		args = append(args, uuid.New())
		for _, v := range rec {
			args = append(args, v)
		}
		args = append(args, date)
		batch.Queue(query, args...)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("failed to insert AVL records: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit AVL records: %w", err)
	}

	p.logger.Info("Saved AVL records", zap.Int("count", len(records)))
	return len(records), nil
}

func selectColumns() string {
	return "item_id, " + strings.Join(schema.ColumnNames(), ", ") + ", date_added"
}

func scanRecord(row pgx.Row) (*Record, error) {
	rec := &Record{}
	dest := make([]any, 0, schema.FieldCount+2)
	dest = append(dest, &rec.ID)
	for i := range rec.Fields {
		dest = append(dest, &rec.Fields[i])
	}
	dest = append(dest, &rec.DateAdded)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return rec, nil
}

func (p *Postgres) List(ctx context.Context) ([]*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", selectColumns(), tableName)
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list AVL records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan AVL record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list AVL records: %w", err)
	}
	return out, nil
}

func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE item_id = $1", selectColumns(), tableName)
	rec, err := scanRecord(p.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get AVL record: %w", err)
	}
	return rec, nil
}

func (p *Postgres) Update(ctx context.Context, id uuid.UUID, fields map[schema.Field]*string) error {
	if err := validateFields(fields); err != nil {
		return err
	}
	if len(fields) == 0 {
		_, err := p.Get(ctx, id)
		return err
	}

	sets, args := setClauses(fields, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE item_id = $1", tableName, strings.Join(sets, ", "))
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update AVL record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// setClauses builds "column = $n" assignments in registry order, after the
// leading args.
func setClauses(fields map[schema.Field]*string, leading ...any) ([]string, []any) {
	sets := make([]string, 0, len(fields))
	args := append([]any(nil), leading...)
	for _, f := range schema.Fields() {
		v, ok := fields[f]
		if !ok {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", schema.ColumnName(f), len(args)))
	}
	return sets, args
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (p *Postgres) UpdateMany(ctx context.Context, ids []uuid.UUID, fields map[schema.Field]*string) (int, error) {
	if err := validateFields(fields); err != nil {
		return 0, err
	}
	if len(ids) == 0 || len(fields) == 0 {
		return 0, nil
	}

	sets, args := setClauses(fields, idStrings(ids))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE item_id = ANY($1::uuid[])", tableName, strings.Join(sets, ", "))
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update AVL records: %w", err)
	}
	p.logger.Info("Bulk updated AVL records", zap.Int64("count", tag.RowsAffected()))
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) DeleteMany(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE item_id = ANY($1::uuid[])", tableName)
	tag, err := p.pool.Exec(ctx, query, idStrings(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete AVL records: %w", err)
	}
	p.logger.Info("Bulk deleted AVL records", zap.Int64("count", tag.RowsAffected()))
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE item_id = $1", tableName), id)
	if err != nil {
		return fmt.Errorf("failed to delete AVL record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (p *Postgres) DropAll(ctx context.Context) (int, error) {
	tag, err := p.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", tableName))
	if err != nil {
		return 0, fmt.Errorf("failed to drop AVL records: %w", err)
	}
	if _, err := p.pool.Exec(ctx, fmt.Sprintf("ALTER SEQUENCE %s_seq_seq RESTART", tableName)); err != nil {
		p.logger.Warn("Failed to reset AVL sequence", zap.Error(err))
	}
	p.logger.Info("Dropped AVL records", zap.Int64("count", tag.RowsAffected()))
	return int(tag.RowsAffected()), nil
}
