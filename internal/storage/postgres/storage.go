package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/avdeyev/reviewflow/internal/domain/errors"
	"github.com/avdeyev/reviewflow/internal/domain/model"
	"github.com/avdeyev/reviewflow/internal/domain/repository"
)

// dbPool is the subset of pgxpool.Pool used by the storage. It matches
// pgxmock's pool interface so repositories are testable without a server.
type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   dbPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type reviewRepository struct {
	storage *Storage
}

type merchantRepository struct {
	storage *Storage
}

type userRepository struct {
	storage *Storage
}

type configRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Reviews() repository.ReviewRepository {
	return &reviewRepository{storage: s}
}

func (s *Storage) Merchants() repository.MerchantRepository {
	return &merchantRepository{storage: s}
}

func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Configs() repository.ConfigRepository {
	return &configRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS merchants (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            chat_id BIGINT UNIQUE NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS users (
            id BIGINT PRIMARY KEY,
            username TEXT NOT NULL DEFAULT '',
            points INTEGER NOT NULL DEFAULT 0,
            xp INTEGER NOT NULL DEFAULT 0,
            level_name TEXT NOT NULL DEFAULT '新手',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            merchant_id BIGINT NOT NULL REFERENCES merchants(id),
            customer_user_id BIGINT NOT NULL,
            price DOUBLE PRECISION NOT NULL DEFAULT 0,
            status TEXT NOT NULL,
            completed_at TIMESTAMPTZ,
            review_prompted_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS reviews (
            id SERIAL PRIMARY KEY,
            order_id BIGINT UNIQUE NOT NULL REFERENCES orders(id),
            merchant_id BIGINT NOT NULL REFERENCES merchants(id),
            customer_user_id BIGINT NOT NULL,
            rating_appearance INTEGER NOT NULL,
            rating_figure INTEGER NOT NULL,
            rating_service INTEGER NOT NULL,
            rating_attitude INTEGER NOT NULL,
            rating_environment INTEGER NOT NULL,
            text_review TEXT,
            status TEXT NOT NULL,
            is_confirmed_by_merchant BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS reward_log (
            id SERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL,
            points INTEGER NOT NULL,
            xp INTEGER NOT NULL,
            reason TEXT NOT NULL,
            granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS system_config (
            config_key TEXT PRIMARY KEY,
            config_value JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_completed ON orders(status, completed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_merchant ON reviews(merchant_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_reward_log_user ON reward_log(user_id, granted_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) Create(ctx context.Context, merchantID, customerUserID int64, price float64) (*model.Order, error) {
	const query = `INSERT INTO orders (merchant_id, customer_user_id, price, status)
                   VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	order := model.Order{
		MerchantID:     merchantID,
		CustomerUserID: customerUserID,
		Price:          price,
		Status:         model.OrderStatusPending,
	}
	err := r.storage.pool.QueryRow(ctx, query, merchantID, customerUserID, price, model.OrderStatusPending).
		Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	const query = `SELECT id, merchant_id, customer_user_id, price, status, completed_at, created_at
                   FROM orders WHERE id=$1`
	var o model.Order
	err := r.storage.pool.QueryRow(ctx, query, orderID).
		Scan(&o.ID, &o.MerchantID, &o.CustomerUserID, &o.Price, &o.Status, &o.CompletedAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	const query = `UPDATE orders
                   SET status=$1,
                       completed_at = CASE WHEN $1 = 'completed' AND completed_at IS NULL THEN NOW() ELSE completed_at END
                   WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, status, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) SelectCompletedWithoutReview(ctx context.Context, limit int) ([]model.Order, error) {
	const selectQuery = `SELECT o.id, o.merchant_id, o.customer_user_id, o.price, o.status, o.completed_at, o.created_at
                         FROM orders o
                         LEFT JOIN reviews r ON r.order_id = o.id
                         WHERE o.status = 'completed' AND o.review_prompted_at IS NULL AND r.id IS NULL
                         ORDER BY o.completed_at
                         LIMIT $1
                         FOR UPDATE OF o SKIP LOCKED`

	var orders []model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var o model.Order
			if err := rows.Scan(&o.ID, &o.MerchantID, &o.CustomerUserID, &o.Price, &o.Status, &o.CompletedAt, &o.CreatedAt); err != nil {
				return err
			}
			orders = append(orders, o)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, o := range orders {
			if _, err := tx.Exec(ctx, `UPDATE orders SET review_prompted_at=NOW() WHERE id=$1`, o.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) MarkReviewPrompted(ctx context.Context, orderID int64) error {
	tag, err := r.storage.pool.Exec(ctx, `UPDATE orders SET review_prompted_at=NOW() WHERE id=$1`, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- ReviewRepository implementation ---

func (r *reviewRepository) Create(ctx context.Context, orderID, merchantID, customerUserID int64, rating model.Rating, textReview *string) (*model.Review, error) {
	if err := rating.Validate(); err != nil {
		return nil, err
	}

	const query = `INSERT INTO reviews (
                       order_id, merchant_id, customer_user_id,
                       rating_appearance, rating_figure, rating_service, rating_attitude, rating_environment,
                       text_review, status, is_confirmed_by_merchant
                   )
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE)
                   ON CONFLICT (order_id) DO NOTHING
                   RETURNING id, created_at`
	review := model.Review{
		OrderID:        orderID,
		MerchantID:     merchantID,
		CustomerUserID: customerUserID,
		Rating:         rating,
		TextReview:     textReview,
		Status:         model.ReviewStatusPendingMerchant,
	}
	err := r.storage.pool.QueryRow(ctx, query,
		orderID, merchantID, customerUserID,
		rating.Appearance, rating.Figure, rating.Service, rating.Attitude, rating.Environment,
		textReview, model.ReviewStatusPendingMerchant,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrAlreadyExists
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByOrderID(ctx context.Context, orderID int64) (*model.Review, error) {
	const query = `SELECT id, order_id, merchant_id, customer_user_id,
                          rating_appearance, rating_figure, rating_service, rating_attitude, rating_environment,
                          text_review, status, is_confirmed_by_merchant, created_at
                   FROM reviews WHERE order_id=$1`
	return r.scanReview(r.storage.pool.QueryRow(ctx, query, orderID))
}

func (r *reviewRepository) scanReview(row pgx.Row) (*model.Review, error) {
	var rv model.Review
	err := row.Scan(
		&rv.ID, &rv.OrderID, &rv.MerchantID, &rv.CustomerUserID,
		&rv.Rating.Appearance, &rv.Rating.Figure, &rv.Rating.Service, &rv.Rating.Attitude, &rv.Rating.Environment,
		&rv.TextReview, &rv.Status, &rv.IsConfirmedByMerchant, &rv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) GetDetails(ctx context.Context, reviewID int64) (*model.ReviewDetails, error) {
	const query = `SELECT r.id, r.order_id, r.merchant_id, r.customer_user_id,
                          r.rating_appearance, r.rating_figure, r.rating_service, r.rating_attitude, r.rating_environment,
                          r.text_review, r.status, r.is_confirmed_by_merchant, r.created_at,
                          m.name, COALESCE(u.username, '')
                   FROM reviews r
                   JOIN merchants m ON m.id = r.merchant_id
                   LEFT JOIN users u ON u.id = r.customer_user_id
                   WHERE r.id=$1`
	var d model.ReviewDetails
	err := r.storage.pool.QueryRow(ctx, query, reviewID).Scan(
		&d.ID, &d.OrderID, &d.MerchantID, &d.CustomerUserID,
		&d.Rating.Appearance, &d.Rating.Figure, &d.Rating.Service, &d.Rating.Attitude, &d.Rating.Environment,
		&d.TextReview, &d.Status, &d.IsConfirmedByMerchant, &d.CreatedAt,
		&d.MerchantName, &d.CustomerUsername,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Confirm flips the review to confirmed. The WHERE guard makes the
// transition single-shot: a replayed confirmation affects zero rows.
func (r *reviewRepository) Confirm(ctx context.Context, reviewID int64) error {
	const query = `UPDATE reviews
                   SET is_confirmed_by_merchant=TRUE, status=$1
                   WHERE id=$2 AND is_confirmed_by_merchant=FALSE`
	tag, err := r.storage.pool.Exec(ctx, query, model.ReviewStatusCompleted, reviewID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	const existsQuery = `SELECT is_confirmed_by_merchant FROM reviews WHERE id=$1`
	var confirmed bool
	err = r.storage.pool.QueryRow(ctx, existsQuery, reviewID).Scan(&confirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainErrors.ErrNotFound
		}
		return err
	}
	if confirmed {
		return domainErrors.ErrAlreadyConfirmed
	}
	return domainErrors.ErrNotFound
}

// --- MerchantRepository implementation ---

func (r *merchantRepository) Create(ctx context.Context, name string, chatID int64) (*model.Merchant, error) {
	const query = `INSERT INTO merchants (name, chat_id) VALUES ($1, $2) RETURNING id, created_at`
	m := model.Merchant{Name: name, ChatID: chatID}
	err := r.storage.pool.QueryRow(ctx, query, name, chatID).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &m, nil
}

func (r *merchantRepository) GetByID(ctx context.Context, merchantID int64) (*model.Merchant, error) {
	const query = `SELECT id, name, chat_id, created_at FROM merchants WHERE id=$1`
	var m model.Merchant
	err := r.storage.pool.QueryRow(ctx, query, merchantID).Scan(&m.ID, &m.Name, &m.ChatID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// --- UserRepository implementation ---

func (r *userRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	const query = `SELECT id, username, points, xp, level_name, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, userID).Scan(&u.ID, &u.Username, &u.Points, &u.XP, &u.LevelName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Upsert(ctx context.Context, userID int64, username string) (*model.User, error) {
	const query = `INSERT INTO users (id, username) VALUES ($1, $2)
                   ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
                   RETURNING points, xp, level_name, created_at`
	u := model.User{ID: userID, Username: username}
	err := r.storage.pool.QueryRow(ctx, query, userID, username).Scan(&u.Points, &u.XP, &u.LevelName, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GrantRewards credits points and experience and records the grant in the
// reward ledger within one transaction.
func (r *userRepository) GrantRewards(ctx context.Context, userID int64, points, xp int, reason string) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const updateQuery = `UPDATE users SET points = points + $1, xp = xp + $2 WHERE id=$3`
		tag, err := tx.Exec(ctx, updateQuery, points, xp, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrNotFound
		}

		const logQuery = `INSERT INTO reward_log (user_id, points, xp, reason) VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, logQuery, userID, points, xp, reason); err != nil {
			return err
		}
		return nil
	})
}

func (r *userRepository) UpdateLevel(ctx context.Context, userID int64, levelName string) error {
	const query = `UPDATE users SET level_name=$1 WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, levelName, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- ConfigRepository implementation ---

func (r *configRepository) getRaw(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT config_value FROM system_config WHERE config_key=$1`
	var raw []byte
	err := r.storage.pool.QueryRow(ctx, query, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return raw, nil
}

func (r *configRepository) GetInt(ctx context.Context, key string, def int) (int, error) {
	raw, err := r.getRaw(ctx, key)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return def, nil
		}
		return def, err
	}
	var value int
	if err := json.Unmarshal(raw, &value); err != nil {
		return def, fmt.Errorf("decode config %q: %w", key, err)
	}
	return value, nil
}

func (r *configRepository) GetString(ctx context.Context, key string, def string) (string, error) {
	raw, err := r.getRaw(ctx, key)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return def, nil
		}
		return def, err
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return def, fmt.Errorf("decode config %q: %w", key, err)
	}
	return value, nil
}

func (r *configRepository) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := r.getRaw(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode config %q: %w", key, err)
	}
	return nil
}

func (r *configRepository) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode config %q: %w", key, err)
	}
	const query = `INSERT INTO system_config (config_key, config_value)
                   VALUES ($1, $2)
                   ON CONFLICT (config_key) DO UPDATE
                   SET config_value = EXCLUDED.config_value, updated_at = NOW()`
	if _, err := r.storage.pool.Exec(ctx, query, key, raw); err != nil {
		return err
	}
	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
