// ABOUTME: In-memory Gateway implementation for testing
// ABOUTME: Allows tests to run without SQLite or a credential file

package remote

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockGateway is an in-memory Gateway implementation for testing.
type MockGateway struct {
	mu       sync.RWMutex
	users    map[string]string // username -> password
	projects []*Project        // newest first
	session  string            // restorable identity, empty when none

	// Test hooks. NextErr forces the next operation to fail with the given
	// error. NextExperimentID overrides the generated experiment id, used to
	// exercise duplicate-delivery handling. AnalyzeCalls counts invocations
	// of AnalyzeAndSaveExperiment.
	NextErr          error
	NextExperimentID string
	AnalyzeCalls     int
}

// NewMockGateway creates an empty MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		users: make(map[string]string),
	}
}

// SeedUser registers a user without going through Register.
func (m *MockGateway) SeedUser(username, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[username] = password
}

// SeedSession marks an identity as restorable, as if a prior run had logged in.
func (m *MockGateway) SeedSession(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = identity
}

// takeErr consumes NextErr, if set.
func (m *MockGateway) takeErr() error {
	err := m.NextErr
	m.NextErr = nil
	return err
}

// Login verifies credentials against the seeded users.
func (m *MockGateway) Login(ctx context.Context, username, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeErr(); err != nil {
		return "", err
	}

	stored, ok := m.users[username]
	if !ok || stored != password {
		return "", ErrInvalidCredentials
	}
	m.session = username
	return username, nil
}

// Register creates a new user.
func (m *MockGateway) Register(ctx context.Context, username, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeErr(); err != nil {
		return err
	}

	if _, ok := m.users[username]; ok {
		return ErrUserExists
	}
	m.users[username] = password
	return nil
}

// RestoreSession returns the seeded or last logged-in identity.
func (m *MockGateway) RestoreSession(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeErr(); err != nil {
		return "", err
	}

	if m.session == "" {
		return "", ErrNoSession
	}
	return m.session, nil
}

// Logout clears the restorable session.
func (m *MockGateway) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeErr(); err != nil {
		return err
	}
	m.session = ""
	return nil
}

// FetchProjects returns clones of the owner's projects, newest first.
func (m *MockGateway) FetchProjects(ctx context.Context, owner string) ([]*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeErr(); err != nil {
		return nil, err
	}

	var out []*Project
	for _, p := range m.projects {
		if p.Owner == owner {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// CreateProject stores a new empty project with a generated id.
func (m *MockGateway) CreateProject(ctx context.Context, name, owner string) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeErr(); err != nil {
		return nil, err
	}

	p := &Project{
		ID:          uuid.New().String(),
		Name:        name,
		Owner:       owner,
		CreateDate:  time.Now().UTC().Format("2006-01-02"),
		Experiments: []Experiment{},
	}
	m.projects = append([]*Project{p}, m.projects...)
	return p.Clone(), nil
}

// DeleteProject removes a project by id.
func (m *MockGateway) DeleteProject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeErr(); err != nil {
		return err
	}

	for i, p := range m.projects {
		if p.ID == id {
			m.projects = append(m.projects[:i], m.projects[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// AnalyzeAndSaveExperiment validates input, runs the analysis once, and
// prepends the experiment to the project.
func (m *MockGateway) AnalyzeAndSaveExperiment(ctx context.Context, projectID, cellLine, drug string, doses []Dose) (*Experiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AnalyzeCalls++

	if err := m.takeErr(); err != nil {
		return nil, err
	}

	if err := ValidateExperimentInput(cellLine, drug, doses); err != nil {
		return nil, err
	}

	var project *Project
	for _, p := range m.projects {
		if p.ID == projectID {
			project = p
			break
		}
	}
	if project == nil {
		return nil, ErrNotFound
	}

	result, err := analyzeDoses(drug, doses)
	if err != nil {
		return nil, err
	}

	id := m.NextExperimentID
	if id == "" {
		id = uuid.New().String()
	}

	exp := Experiment{
		ID:             id,
		CellLine:       cellLine,
		Drug:           drug,
		Doses:          withDoseIDs(doses),
		AnalysisResult: result,
	}
	project.Experiments = append([]Experiment{exp}, project.Experiments...)
	return exp.CloneInto(), nil
}

// ValidateExperimentInput checks the experiment fields the gateway requires:
// non-empty cell line and drug, and at least one dose (the control).
func ValidateExperimentInput(cellLine, drug string, doses []Dose) error {
	if strings.TrimSpace(cellLine) == "" || strings.TrimSpace(drug) == "" {
		return ErrInvalidExperiment
	}
	if len(doses) == 0 {
		return ErrInvalidExperiment
	}
	return nil
}

// withDoseIDs copies the dose list, assigning ids to doses that lack one.
func withDoseIDs(doses []Dose) []Dose {
	out := append([]Dose(nil), doses...)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.New().String()
		}
	}
	return out
}
