// ABOUTME: Gateway decorator recording per-operation call metrics
// ABOUTME: Wraps any remote.Gateway without changing its behavior

package metrics

import (
	"context"
	"time"

	"github.com/colonylab/labsync/internal/remote"
)

// InstrumentGateway wraps a gateway so every call is counted and timed.
func InstrumentGateway(gateway remote.Gateway, m *Metrics) remote.Gateway {
	return &instrumentedGateway{gateway: gateway, metrics: m}
}

type instrumentedGateway struct {
	gateway remote.Gateway
	metrics *Metrics
}

var _ remote.Gateway = (*instrumentedGateway)(nil)

// observe records one call. Outcome is "ok" or "error".
func (g *instrumentedGateway) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	g.metrics.GatewayCalls.WithLabelValues(op, outcome).Inc()
	g.metrics.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (g *instrumentedGateway) Login(ctx context.Context, username, password string) (string, error) {
	start := time.Now()
	identity, err := g.gateway.Login(ctx, username, password)
	g.observe("login", start, err)
	return identity, err
}

func (g *instrumentedGateway) Register(ctx context.Context, username, password string) error {
	start := time.Now()
	err := g.gateway.Register(ctx, username, password)
	g.observe("register", start, err)
	return err
}

func (g *instrumentedGateway) RestoreSession(ctx context.Context) (string, error) {
	start := time.Now()
	identity, err := g.gateway.RestoreSession(ctx)
	g.observe("restore_session", start, err)
	return identity, err
}

func (g *instrumentedGateway) Logout(ctx context.Context) error {
	start := time.Now()
	err := g.gateway.Logout(ctx)
	g.observe("logout", start, err)
	return err
}

func (g *instrumentedGateway) FetchProjects(ctx context.Context, owner string) ([]*remote.Project, error) {
	start := time.Now()
	projects, err := g.gateway.FetchProjects(ctx, owner)
	g.observe("fetch_projects", start, err)
	return projects, err
}

func (g *instrumentedGateway) CreateProject(ctx context.Context, name, owner string) (*remote.Project, error) {
	start := time.Now()
	project, err := g.gateway.CreateProject(ctx, name, owner)
	g.observe("create_project", start, err)
	return project, err
}

func (g *instrumentedGateway) DeleteProject(ctx context.Context, id string) error {
	start := time.Now()
	err := g.gateway.DeleteProject(ctx, id)
	g.observe("delete_project", start, err)
	return err
}

func (g *instrumentedGateway) AnalyzeAndSaveExperiment(ctx context.Context, projectID, cellLine, drug string, doses []remote.Dose) (*remote.Experiment, error) {
	start := time.Now()
	exp, err := g.gateway.AnalyzeAndSaveExperiment(ctx, projectID, cellLine, drug, doses)
	g.observe("analyze_and_save", start, err)
	return exp, err
}
