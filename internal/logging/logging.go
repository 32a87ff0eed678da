package logging

import "go.uber.org/zap"

// New returns a production JSON logger, or a console logger when env is "dev".
func New(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
