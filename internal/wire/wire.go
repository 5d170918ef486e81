//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/sevigo/codesage/internal/app"
	"github.com/sevigo/codesage/internal/config"
)

func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(
		config.LoadConfig,
		AppSet,
	)
	return &app.App{}, nil, nil
}
