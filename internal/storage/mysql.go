package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/maneesh/filevault/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("filevault-storage")

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("not found")

// MySQLClient wraps the document store (users and files tables) with tracing
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient initializes a new MySQL client
func NewMySQLClient(dsn string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &MySQLClient{db: db}, nil
}

// NewMySQLClientWithDB wraps an existing database handle. Used by tests.
func NewMySQLClientWithDB(db *sql.DB) *MySQLClient {
	return &MySQLClient{db: db}
}

// Close closes the database connection
func (mc *MySQLClient) Close() error {
	return mc.db.Close()
}

// Ping reports whether the database is reachable
func (mc *MySQLClient) Ping(ctx context.Context) error {
	return mc.db.PingContext(ctx)
}

// CreateUser inserts a new user record with tracing
func (mc *MySQLClient) CreateUser(ctx context.Context, user *models.User) error {
	ctx, span := tracer.Start(ctx, "mysql.create_user",
		trace.WithAttributes(
			attribute.String("user_id", user.ID),
		),
	)
	defer span.End()

	query := `INSERT INTO users (id, email, password, created_at)
			  VALUES (?, ?, ?, ?)`

	_, err := mc.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by unique email with tracing
func (mc *MySQLClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_user_by_email")
	defer span.End()

	query := `SELECT id, email, password, created_at FROM users WHERE email = ?`

	var user models.User
	err := mc.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	return &user, nil
}

// GetUserByID retrieves a user by id with tracing
func (mc *MySQLClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_user_by_id",
		trace.WithAttributes(
			attribute.String("user_id", id),
		),
	)
	defer span.End()

	query := `SELECT id, email, password, created_at FROM users WHERE id = ?`

	var user models.User
	err := mc.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	return &user, nil
}

// CountUsers returns the total number of registered users
func (mc *MySQLClient) CountUsers(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "mysql.count_users")
	defer span.End()

	var n int64
	if err := mc.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CountFiles returns the total number of file nodes
func (mc *MySQLClient) CountFiles(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "mysql.count_files")
	defer span.End()

	var n int64
	if err := mc.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return n, nil
}

// CreateFile inserts file node metadata with tracing
func (mc *MySQLClient) CreateFile(ctx context.Context, node *models.FileNode) error {
	ctx, span := tracer.Start(ctx, "mysql.create_file",
		trace.WithAttributes(
			attribute.String("file_id", node.ID),
			attribute.String("file_type", node.Type),
		),
	)
	defer span.End()

	query := `INSERT INTO files (id, user_id, name, type, is_public, parent_id, local_path)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := mc.db.ExecContext(ctx, query,
		node.ID, node.UserID, node.Name, node.Type, node.IsPublic, node.ParentID, node.LocalPath)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert file: %w", err)
	}

	return nil
}

// GetFileByID retrieves a file node by id with tracing
func (mc *MySQLClient) GetFileByID(ctx context.Context, id string) (*models.FileNode, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_file",
		trace.WithAttributes(
			attribute.String("file_id", id),
		),
	)
	defer span.End()

	query := `SELECT id, user_id, name, type, is_public, parent_id, local_path
			  FROM files WHERE id = ?`

	node, err := scanFile(mc.db.QueryRowContext(ctx, query, id))
	if err == ErrNotFound {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, err
	} else if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("found", true))
	return node, nil
}

// GetFileByIDAndOwner retrieves a file node only if it belongs to owner
func (mc *MySQLClient) GetFileByIDAndOwner(ctx context.Context, id, ownerID string) (*models.FileNode, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_file_by_owner",
		trace.WithAttributes(
			attribute.String("file_id", id),
			attribute.String("user_id", ownerID),
		),
	)
	defer span.End()

	query := `SELECT id, user_id, name, type, is_public, parent_id, local_path
			  FROM files WHERE id = ? AND user_id = ?`

	node, err := scanFile(mc.db.QueryRowContext(ctx, query, id, ownerID))
	if err == ErrNotFound {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, err
	} else if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("found", true))
	return node, nil
}

// ListFiles retrieves one page of an owner's file nodes under a parent,
// in insertion order
func (mc *MySQLClient) ListFiles(ctx context.Context, ownerID, parentID string, limit, offset int) ([]*models.FileNode, error) {
	ctx, span := tracer.Start(ctx, "mysql.list_files",
		trace.WithAttributes(
			attribute.String("user_id", ownerID),
			attribute.String("parent_id", parentID),
			attribute.Int("limit", limit),
			attribute.Int("offset", offset),
		),
	)
	defer span.End()

	query := `SELECT id, user_id, name, type, is_public, parent_id, local_path
			  FROM files
			  WHERE user_id = ? AND parent_id = ?
			  ORDER BY seq ASC
			  LIMIT ? OFFSET ?`

	rows, err := mc.db.QueryContext(ctx, query, ownerID, parentID, limit, offset)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	nodes := []*models.FileNode{}
	for rows.Next() {
		var node models.FileNode
		err := rows.Scan(
			&node.ID,
			&node.UserID,
			&node.Name,
			&node.Type,
			&node.IsPublic,
			&node.ParentID,
			&node.LocalPath,
		)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		nodes = append(nodes, &node)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	span.SetAttributes(attribute.Int("file_count", len(nodes)))
	return nodes, nil
}

// SetFilePublic updates the visibility flag for a node owned by ownerID.
// Returns ErrNotFound when no row matched.
func (mc *MySQLClient) SetFilePublic(ctx context.Context, id, ownerID string, isPublic bool) error {
	ctx, span := tracer.Start(ctx, "mysql.set_file_public",
		trace.WithAttributes(
			attribute.String("file_id", id),
			attribute.Bool("is_public", isPublic),
		),
	)
	defer span.End()

	query := `UPDATE files SET is_public = ? WHERE id = ? AND user_id = ?`

	result, err := mc.db.ExecContext(ctx, query, isPublic, id, ownerID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update file: %w", err)
	}

	matched, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to read update result: %w", err)
	}
	// A no-op update (flag already at the requested value) still matches
	// the row, but MySQL reports zero affected rows; re-check existence.
	if matched == 0 {
		if _, err := mc.GetFileByIDAndOwner(ctx, id, ownerID); err != nil {
			span.SetAttributes(attribute.Bool("found", false))
			return err
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.FileNode, error) {
	var node models.FileNode
	err := row.Scan(
		&node.ID,
		&node.UserID,
		&node.Name,
		&node.Type,
		&node.IsPublic,
		&node.ParentID,
		&node.LocalPath,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to scan file: %w", err)
	}
	return &node, nil
}
