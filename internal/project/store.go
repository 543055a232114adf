// ABOUTME: Owner-scoped in-memory mirror of remote projects with serialized mutations
// ABOUTME: Tracks the active project and applies create/delete/add-experiment through the gateway

package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/colonylab/labsync/internal/remote"
)

// ErrNoActiveProject is returned when an experiment is submitted with no
// project selected. The check is local; no remote call is made.
var ErrNoActiveProject = errors.New("no active project")

// ErrNoOwner is returned when a mutation is attempted before any owner has
// been loaded into the mirror.
var ErrNoOwner = errors.New("no owner loaded")

// DefaultProjectName is used when a project is created with an empty or
// whitespace-only name. Matches the forgiving input handling of the UI.
const DefaultProjectName = "New Project"

// Store mirrors the remote project collection for one owner and tracks which
// project is active for experiment submissions. It is the only component
// that mutates the mirrored documents. Mutations are serialized per store
// instance; overlapping calls run one at a time rather than relying on
// caller discipline.
type Store struct {
	gateway remote.Gateway
	logger  *slog.Logger

	opMu sync.Mutex // serializes mutations against the gateway

	mu        sync.RWMutex // guards the fields below
	owner     string
	projects  []*remote.Project // newest first
	activeID  string
	observers []func()
}

// NewStore creates an empty store bound to the gateway.
func NewStore(gateway remote.Gateway, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		gateway: gateway,
		logger:  logger.With("component", "projects"),
	}
}

// Subscribe registers a callback invoked after every mirror change. The
// callback runs outside the store's locks and must not block for long.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	observers := append([]func(){}, s.observers...)
	s.mu.RUnlock()
	for _, fn := range observers {
		fn()
	}
}

// Load replaces the mirror with the owner's projects from the remote store.
// Projects owned by anyone else are filtered out even if the remote query
// already scoped them. The active selection is cleared.
func (s *Store) Load(ctx context.Context, owner string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	fetched, err := s.gateway.FetchProjects(ctx, owner)
	if err != nil {
		return fmt.Errorf("fetching projects: %w", err)
	}

	// Defense in depth: never mirror another owner's documents.
	projects := make([]*remote.Project, 0, len(fetched))
	for _, p := range fetched {
		if p.Owner == owner {
			projects = append(projects, p)
		}
	}

	s.mu.Lock()
	s.owner = owner
	s.projects = projects
	s.activeID = ""
	s.mu.Unlock()

	s.logger.Info("loaded projects", "owner", owner, "count", len(projects))
	s.notify()
	return nil
}

// Reset clears the mirror, the owner, and the active selection. The remote
// store is untouched.
func (s *Store) Reset() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.owner = ""
	s.projects = nil
	s.activeID = ""
	s.mu.Unlock()

	s.notify()
}

// Owner returns the identity the mirror is scoped to, empty when unloaded.
func (s *Store) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// Projects returns the mirrored projects, newest first. Callers receive
// clones and cannot mutate the mirror.
func (s *Store) Projects() []*remote.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*remote.Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = p.Clone()
	}
	return out
}

// Select marks a project as the target for experiment submissions. Selecting
// an id not present in the mirror is permitted but yields no-active-project
// semantics until a matching project appears.
func (s *Store) Select(id string) {
	s.mu.Lock()
	s.activeID = id
	s.mu.Unlock()
	s.notify()
}

// ActiveProjectID returns the selected project id, empty when none.
func (s *Store) ActiveProjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// ActiveProject returns a clone of the selected project, or false when the
// selection is empty or absent from the mirror.
func (s *Store) ActiveProject() (*remote.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.findLocked(s.activeID)
	if p == nil {
		return nil, false
	}
	return p.Clone(), true
}

// findLocked returns the mirrored project with the given id. Caller holds mu.
func (s *Store) findLocked(id string) *remote.Project {
	if id == "" {
		return nil
	}
	for _, p := range s.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CreateProject issues a durable create and, on acknowledgement, prepends
// the returned project to the mirror. There is no optimistic insertion; a
// failed create leaves the mirror unchanged. Empty names fall back to
// DefaultProjectName rather than failing.
func (s *Store) CreateProject(ctx context.Context, name string) (*remote.Project, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	owner := s.Owner()
	if owner == "" {
		return nil, ErrNoOwner
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultProjectName
	}

	created, err := s.gateway.CreateProject(ctx, name, owner)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.mu.Lock()
	s.projects = append([]*remote.Project{created}, s.projects...)
	s.mu.Unlock()

	s.logger.Info("created project", "id", created.ID, "name", created.Name)
	s.notify()
	return created.Clone(), nil
}

// DeleteProject durably deletes the project, then removes it from the
// mirror. A project already gone remotely is still dropped locally. Deleting
// the active project clears the selection.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.gateway.DeleteProject(ctx, id); err != nil && !errors.Is(err, remote.ErrNotFound) {
		return fmt.Errorf("deleting project: %w", err)
	}

	s.mu.Lock()
	for i, p := range s.projects {
		if p.ID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = ""
	}
	s.mu.Unlock()

	s.logger.Info("deleted project", "id", id)
	s.notify()
	return nil
}

// AddExperiment submits a dose-response run for the active project. Fails
// fast with ErrNoActiveProject when nothing valid is selected, without any
// remote call. On success the returned experiment, carrying its analysis
// result, is prepended to the project's list. Applying the same experiment
// id twice is a no-op, so a retried delivery cannot duplicate an entry.
func (s *Store) AddExperiment(ctx context.Context, cellLine, drug string, doses []remote.Dose) (*remote.Experiment, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	active := s.findLocked(s.activeID)
	var activeID string
	if active != nil {
		activeID = active.ID
	}
	s.mu.RUnlock()

	if activeID == "" {
		return nil, ErrNoActiveProject
	}

	exp, err := s.gateway.AnalyzeAndSaveExperiment(ctx, activeID, cellLine, drug, doses)
	if err != nil {
		return nil, fmt.Errorf("analyzing experiment: %w", err)
	}

	s.mu.Lock()
	project := s.findLocked(activeID)
	if project != nil && !hasExperiment(project, exp.ID) {
		project.Experiments = append([]remote.Experiment{*exp.CloneInto()}, project.Experiments...)
	}
	s.mu.Unlock()

	s.logger.Info("added experiment", "id", exp.ID, "project_id", activeID, "drug", drug)
	s.notify()
	return exp, nil
}

func hasExperiment(p *remote.Project, id string) bool {
	for _, e := range p.Experiments {
		if e.ID == id {
			return true
		}
	}
	return false
}
