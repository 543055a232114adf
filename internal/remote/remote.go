// ABOUTME: Gateway interface and document types for the remote lab store
// ABOUTME: Defines Project, Experiment, Dose and the operations the sync layers need

package remote

import (
	"context"
	"errors"

	"github.com/colonylab/labsync/internal/analysis"
)

// ErrInvalidCredentials is returned when a login attempt fails verification.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserExists is returned when registering a username that is already taken.
var ErrUserExists = errors.New("user already exists")

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoSession is returned by RestoreSession when no restorable identity exists.
var ErrNoSession = errors.New("no stored session")

// ErrInvalidExperiment is returned when experiment input fails validation
// before any analysis or write happens.
var ErrInvalidExperiment = errors.New("invalid experiment input")

// Dose is one concentration level of a drug applied to a sample. Index 0 in
// an experiment's dose list is the control, conventionally concentration "0".
// ImageRef is an opaque reference to a captured sample image, empty if none.
type Dose struct {
	ID            string `json:"id"`
	Concentration string `json:"concentration"`
	ImageRef      string `json:"imageRef,omitempty"`
}

// AnalysisResult holds the derived dose-response curves: three series of
// equal length, one entry per dose. It is computed exactly once when the
// experiment is saved and never recomputed on read.
type AnalysisResult struct {
	Labels    []string `json:"labels"`
	CountData []int    `json:"countData"`
	SizeData  []int    `json:"sizeData"`
}

// Experiment is a single dose-response run within a project. Experiments are
// immutable once stored.
type Experiment struct {
	ID             string          `json:"id"`
	CellLine       string          `json:"cellLine"`
	Drug           string          `json:"drug"`
	Doses          []Dose          `json:"doses"`
	AnalysisResult *AnalysisResult `json:"analysisResult,omitempty"`
}

// Project is a folder of experiments owned by a single researcher.
// Experiments are ordered newest first. CreateDate is YYYY-MM-DD.
type Project struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Owner       string       `json:"owner"`
	CreateDate  string       `json:"createDate"`
	Experiments []Experiment `json:"experiments"`
}

// Clone returns a deep copy of the project. The mirror hands out clones so
// callers can never mutate stored documents.
func (p *Project) Clone() *Project {
	c := *p
	c.Experiments = make([]Experiment, len(p.Experiments))
	for i, e := range p.Experiments {
		c.Experiments[i] = *e.CloneInto()
	}
	return &c
}

// CloneInto returns a deep copy of the experiment.
func (e *Experiment) CloneInto() *Experiment {
	c := *e
	c.Doses = append([]Dose(nil), e.Doses...)
	if e.AnalysisResult != nil {
		ar := AnalysisResult{
			Labels:    append([]string(nil), e.AnalysisResult.Labels...),
			CountData: append([]int(nil), e.AnalysisResult.CountData...),
			SizeData:  append([]int(nil), e.AnalysisResult.SizeData...),
		}
		c.AnalysisResult = &ar
	}
	return &c
}

// analyzeDoses runs the dose-response analysis over the dose concentrations.
// Both gateway implementations share it so an experiment's result is computed
// the same way regardless of backend.
func analyzeDoses(drug string, doses []Dose) (*AnalysisResult, error) {
	concentrations := make([]string, len(doses))
	for i, d := range doses {
		concentrations[i] = d.Concentration
	}

	result, err := analysis.Analyze(drug, concentrations)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{
		Labels:    result.Labels,
		CountData: result.CountData,
		SizeData:  result.SizeData,
	}, nil
}

// Gateway is the remote auth and document capability the session and project
// layers are built over. Every operation resolves to a definite result; all
// failures surface as errors, never as partial state.
type Gateway interface {
	// Login verifies credentials and establishes a restorable session.
	// Returns ErrInvalidCredentials on bad username or password.
	Login(ctx context.Context, username, password string) (identity string, err error)

	// Register creates a new account. Returns ErrUserExists on conflict.
	// Registration does not log the user in.
	Register(ctx context.Context, username, password string) error

	// RestoreSession resolves a previously established identity, or
	// ErrNoSession when none exists.
	RestoreSession(ctx context.Context) (identity string, err error)

	// Logout invalidates the stored session credential.
	Logout(ctx context.Context) error

	// FetchProjects returns the owner's projects, newest first.
	FetchProjects(ctx context.Context, owner string) ([]*Project, error)

	// CreateProject stores a new empty project and returns it with its
	// server-assigned id.
	CreateProject(ctx context.Context, name, owner string) (*Project, error)

	// DeleteProject durably removes a project and its experiments.
	// Returns ErrNotFound if no such project exists.
	DeleteProject(ctx context.Context, id string) error

	// AnalyzeAndSaveExperiment runs the dose-response analysis exactly once,
	// stores the experiment with its result atomically, and returns it.
	AnalyzeAndSaveExperiment(ctx context.Context, projectID, cellLine, drug string, doses []Dose) (*Experiment, error)
}
