package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"movieverse/models"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert would violate a uniqueness
// constraint, e.g. adding the same watchlist entry twice.
var ErrDuplicate = errors.New("duplicate entry")

// UserRepository persists registered accounts.
type UserRepository struct {
	conn *sql.DB
}

func NewUserRepository(conn *sql.DB) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create inserts a new user and returns it with a generated ID.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// ByEmail looks up a user by email address.
func (r *UserRepository) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

// WatchlistRepository persists authenticated watchlist rows. The table is
// unique on (user_id, item_id, item_type).
type WatchlistRepository struct {
	conn *sql.DB
}

func NewWatchlistRepository(conn *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{conn: conn}
}

// ByUser returns every watchlist entry owned by userID.
func (r *WatchlistRepository) ByUser(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT item_id, item_type FROM watchlist WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("select watchlist: %w", err)
	}
	defer rows.Close()

	var items []models.WatchlistItem
	for rows.Next() {
		var item models.WatchlistItem
		if err := rows.Scan(&item.ID, &item.MediaType); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Add inserts a watchlist entry for userID.
func (r *WatchlistRepository) Add(ctx context.Context, userID string, item models.WatchlistItem) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO watchlist (user_id, item_id, item_type) VALUES (?, ?, ?)`,
		userID, item.ID, item.MediaType)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert watchlist entry: %w", err)
	}
	return nil
}

// Remove deletes the entry keyed by (userID, item.ID, item.MediaType).
// Removing an absent entry is not an error.
func (r *WatchlistRepository) Remove(ctx context.Context, userID string, item models.WatchlistItem) error {
	_, err := r.conn.ExecContext(ctx,
		`DELETE FROM watchlist WHERE user_id = ? AND item_id = ? AND item_type = ?`,
		userID, item.ID, item.MediaType)
	if err != nil {
		return fmt.Errorf("delete watchlist entry: %w", err)
	}
	return nil
}

// RatingRepository persists authenticated rating rows with upsert
// semantics on (user_id, item_id, item_type).
type RatingRepository struct {
	conn *sql.DB
}

func NewRatingRepository(conn *sql.DB) *RatingRepository {
	return &RatingRepository{conn: conn}
}

// ByUser returns every rating owned by userID.
func (r *RatingRepository) ByUser(ctx context.Context, userID string) ([]models.Rating, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT item_id, item_type, rating FROM ratings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("select ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var rating models.Rating
		if err := rows.Scan(&rating.ID, &rating.MediaType, &rating.Value); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

// Upsert inserts the rating or overwrites an existing one for the same key.
func (r *RatingRepository) Upsert(ctx context.Context, userID string, rating models.Rating) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO ratings (user_id, item_id, item_type, rating, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, item_id, item_type)
		 DO UPDATE SET rating = excluded.rating, updated_at = CURRENT_TIMESTAMP`,
		userID, rating.ID, rating.MediaType, rating.Value)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// ProfileRepository persists per-user preference data. Favorite genres are
// stored as a JSON array to keep the schema in one row per user.
type ProfileRepository struct {
	conn *sql.DB
}

func NewProfileRepository(conn *sql.DB) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// ByUser returns the profile for userID. A user without a saved profile
// gets an empty one rather than ErrNotFound.
func (r *ProfileRepository) ByUser(ctx context.Context, userID string) (*models.Profile, error) {
	var raw string
	err := r.conn.QueryRowContext(ctx,
		`SELECT favorite_genres FROM profiles WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.Profile{UserID: userID, FavoriteGenres: []int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}

	profile := &models.Profile{UserID: userID}
	if err := json.Unmarshal([]byte(raw), &profile.FavoriteGenres); err != nil {
		return nil, fmt.Errorf("decode favorite genres: %w", err)
	}
	return profile, nil
}

// Upsert saves the profile, overwriting any previous genre selection.
func (r *ProfileRepository) Upsert(ctx context.Context, profile models.Profile) error {
	raw, err := json.Marshal(profile.FavoriteGenres)
	if err != nil {
		return fmt.Errorf("encode favorite genres: %w", err)
	}

	_, err = r.conn.ExecContext(ctx,
		`INSERT INTO profiles (user_id, favorite_genres) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET favorite_genres = excluded.favorite_genres`,
		profile.UserID, string(raw))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
