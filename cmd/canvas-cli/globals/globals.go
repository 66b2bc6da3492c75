package globals

import (
	"context"
	"errors"

	"canvas-access/cmd/canvas-cli/utils"
	"canvas-access/internal/canvas"
	"canvas-access/internal/components/telemetry"
	"canvas-access/internal/gradestore"
)

type key struct{}

// Config is the content of canvas.json5, flags given on the command line take
// precedence over it.
type Config struct {
	BaseUrl           string               `json:"base_url"`
	ApiKey            string               `json:"api_key"`
	Timezone          string               `json:"timezone"`
	RequestsPerSecond float64              `json:"requests_per_second"`
	Concurrency       int                  `json:"concurrency"`
	Otlp              telemetry.OtlpConfig `json:"otlp"`
	Snapshots         gradestore.Config    `json:"snapshots"`
}

type Value struct {
	Config  Config
	Session *canvas.Session
	Tel     telemetry.API
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}

// RequireSession returns the Canvas session, exiting when base_url or api_key were
// not configured.
func (v *Value) RequireSession() *canvas.Session {
	if v.Session == nil {
		utils.Fatal(
			"no canvas session",
			errors.New("base_url and api_key must be set in canvas.json5 or with --base-url and --api-key"),
		)
	}
	return v.Session
}
