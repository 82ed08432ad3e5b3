package template

import "github.com/nextlevelbuilder/ikigai/internal/id"

// randomToken backs ${func.random}: a fresh identifier-shaped token, not
// intended to be collision-tracked like an agent id.
func randomToken() string {
	return id.NewUUID()
}
