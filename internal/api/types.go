// File path: internal/api/types.go
package api

import "github.com/floatchat/floatchat/internal/gateway"

type chatRequest struct {
	Question string `json:"question"`
	// Mode is "developer" or "user"; empty defaults to user.
	Mode string `json:"mode"`
}

type dataRequest struct {
	Query          string `json:"query"`
	Limit          int    `json:"limit"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// Mode defaults to developer: the raw endpoint is a developer-trust
	// call site.
	Mode string `json:"mode"`
}

// chatResponse mirrors the gateway outcome's wire shape.
type chatResponse = gateway.Outcome

func parseMode(raw, fallback string) gateway.Mode {
	switch raw {
	case string(gateway.ModeDeveloper):
		return gateway.ModeDeveloper
	case string(gateway.ModeUser):
		return gateway.ModeUser
	}
	return gateway.Mode(fallback)
}
