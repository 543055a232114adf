// ABOUTME: SQLite implementation of the Gateway interface using modernc.org/sqlite
// ABOUTME: Stores users, projects, and experiment subdocuments with automatic schema creation

package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite"
)

// dummyHash is compared against when a login targets an unknown username, so
// valid and invalid usernames take the same time to reject.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// SQLiteGateway implements the Gateway interface using SQLite.
type SQLiteGateway struct {
	db          *sql.DB
	credentials *CredentialKeeper
	logger      *slog.Logger
}

// NewSQLiteGateway creates a new SQLite gateway at the given path. The schema
// is created automatically if it doesn't exist, as are parent directories.
// The credential keeper backs session restore between runs.
func NewSQLiteGateway(path string, credentials *CredentialKeeper) (*SQLiteGateway, error) {
	logger := slog.Default().With("component", "remote")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	g := &SQLiteGateway{
		db:          db,
		credentials: credentials,
		logger:      logger,
	}

	if err := g.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite gateway initialized", "path", path)
	return g, nil
}

// Close closes the underlying database.
func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}

func (g *SQLiteGateway) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			owner TEXT NOT NULL,
			create_date TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_projects_owner
			ON projects(owner, created_at DESC);

		CREATE TABLE IF NOT EXISTS experiments (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			cell_line TEXT NOT NULL,
			drug TEXT NOT NULL,
			doses TEXT NOT NULL,
			analysis TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_experiments_project
			ON experiments(project_id, created_at DESC);
	`

	if _, err := g.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Register creates a new account with a bcrypt password hash.
func (g *SQLiteGateway) Register(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	query := `INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`
	_, err = g.db.ExecContext(ctx, query, username, string(hash), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUserExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	g.logger.Info("registered user", "username", username)
	return nil
}

// Login verifies credentials and persists a restorable session credential.
func (g *SQLiteGateway) Login(ctx context.Context, username, password string) (string, error) {
	var hash string
	err := g.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE username = ?`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		// Dummy comparison keeps unknown usernames from failing faster.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("querying user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	if err := g.credentials.Issue(username); err != nil {
		return "", fmt.Errorf("persisting session credential: %w", err)
	}

	g.logger.Info("login successful", "username", username)
	return username, nil
}

// RestoreSession verifies the stored credential and confirms the account
// still exists.
func (g *SQLiteGateway) RestoreSession(ctx context.Context) (string, error) {
	identity, err := g.credentials.Restore()
	if err != nil {
		return "", err
	}

	var exists int
	err = g.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username = ?`, identity).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		// Account deleted since the credential was issued.
		_ = g.credentials.Clear()
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("verifying restored identity: %w", err)
	}

	g.logger.Info("session restored", "username", identity)
	return identity, nil
}

// Logout invalidates the stored session credential.
func (g *SQLiteGateway) Logout(ctx context.Context) error {
	return g.credentials.Clear()
}

// FetchProjects returns the owner's projects with their experiments, newest
// first.
func (g *SQLiteGateway) FetchProjects(ctx context.Context, owner string) ([]*Project, error) {
	query := `
		SELECT id, name, owner, create_date
		FROM projects
		WHERE owner = ?
		ORDER BY created_at DESC
	`

	rows, err := g.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Owner, &p.CreateDate); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}

	for _, p := range projects {
		experiments, err := g.fetchExperiments(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Experiments = experiments
	}

	return projects, nil
}

func (g *SQLiteGateway) fetchExperiments(ctx context.Context, projectID string) ([]Experiment, error) {
	query := `
		SELECT id, cell_line, drug, doses, analysis
		FROM experiments
		WHERE project_id = ?
		ORDER BY created_at DESC
	`

	rows, err := g.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying experiments: %w", err)
	}
	defer rows.Close()

	experiments := []Experiment{}
	for rows.Next() {
		var e Experiment
		var dosesJSON, analysisJSON string
		if err := rows.Scan(&e.ID, &e.CellLine, &e.Drug, &dosesJSON, &analysisJSON); err != nil {
			return nil, fmt.Errorf("scanning experiment: %w", err)
		}
		if err := json.Unmarshal([]byte(dosesJSON), &e.Doses); err != nil {
			return nil, fmt.Errorf("decoding doses for experiment %s: %w", e.ID, err)
		}
		var result AnalysisResult
		if err := json.Unmarshal([]byte(analysisJSON), &result); err != nil {
			return nil, fmt.Errorf("decoding analysis for experiment %s: %w", e.ID, err)
		}
		e.AnalysisResult = &result
		experiments = append(experiments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating experiments: %w", err)
	}

	return experiments, nil
}

// CreateProject stores a new empty project and returns it with its
// server-assigned id and creation date.
func (g *SQLiteGateway) CreateProject(ctx context.Context, name, owner string) (*Project, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("project owner is required")
	}

	now := time.Now().UTC()
	p := &Project{
		ID:          uuid.New().String(),
		Name:        name,
		Owner:       owner,
		CreateDate:  now.Format("2006-01-02"),
		Experiments: []Experiment{},
	}

	query := `INSERT INTO projects (id, name, owner, create_date, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := g.db.ExecContext(ctx, query, p.ID, p.Name, p.Owner, p.CreateDate, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}

	g.logger.Info("created project", "id", p.ID, "owner", owner)
	return p, nil
}

// DeleteProject durably removes a project and, via the foreign key cascade,
// its experiments.
func (g *SQLiteGateway) DeleteProject(ctx context.Context, id string) error {
	result, err := g.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	g.logger.Info("deleted project", "id", id)
	return nil
}

// AnalyzeAndSaveExperiment validates the input, runs the dose-response
// analysis exactly once, and stores the experiment atomically with its
// result. The stored experiment is never recomputed on read.
func (g *SQLiteGateway) AnalyzeAndSaveExperiment(ctx context.Context, projectID, cellLine, drug string, doses []Dose) (*Experiment, error) {
	if err := ValidateExperimentInput(cellLine, drug, doses); err != nil {
		return nil, err
	}

	var owner string
	err := g.db.QueryRowContext(ctx, `SELECT owner FROM projects WHERE id = ?`, projectID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}

	result, err := analyzeDoses(drug, doses)
	if err != nil {
		return nil, err
	}

	exp := &Experiment{
		ID:             uuid.New().String(),
		CellLine:       cellLine,
		Drug:           drug,
		Doses:          withDoseIDs(doses),
		AnalysisResult: result,
	}

	dosesJSON, err := json.Marshal(exp.Doses)
	if err != nil {
		return nil, fmt.Errorf("encoding doses: %w", err)
	}
	analysisJSON, err := json.Marshal(exp.AnalysisResult)
	if err != nil {
		return nil, fmt.Errorf("encoding analysis: %w", err)
	}

	query := `
		INSERT INTO experiments (id, project_id, cell_line, drug, doses, analysis, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = g.db.ExecContext(ctx, query,
		exp.ID,
		projectID,
		exp.CellLine,
		exp.Drug,
		string(dosesJSON),
		string(analysisJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting experiment: %w", err)
	}

	g.logger.Info("saved experiment", "id", exp.ID, "project_id", projectID, "drug", drug)
	return exp, nil
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	// SQLite returns "UNIQUE constraint failed" in the error message
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "unique constraint"))
}
