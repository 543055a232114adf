// Package api exposes the JSON surface the lab UI talks to.
//
// Routes:
//
//	POST   /api/register                 create an account
//	POST   /api/login                    establish the session
//	POST   /api/logout                   clear the session and mirror
//	GET    /api/session                  current state and user
//	GET    /api/projects                 owner's mirrored projects
//	POST   /api/projects                 create a project
//	DELETE /api/projects/{id}            delete a project
//	POST   /api/projects/{id}/select     select the active project
//	GET    /api/projects/active          the selected project
//	POST   /api/experiments              analyze and add an experiment
//
// Layer errors map onto statuses: bad credentials 401, conflicts (duplicate
// user, no active project, wrong session state) 409, missing documents 404,
// invalid experiment input 400, remote failures 502. Screen rendering and
// navigation live entirely in the UI; this package only serializes the
// session and project layers.
package api
