package ports

import "go.trai.ch/canarist/internal/core/domain"

// ConfigLoader defines the interface for resolving the configuration of a run.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load discovers the config file from cwd upwards, merges it with the command
	// line arguments and returns the normalized configuration.
	Load(cwd string, args domain.Arguments) (*domain.Config, error)
}
