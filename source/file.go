package source

import (
	"context"

	"devfestsched/model"
	"devfestsched/schedule"

	"go.uber.org/zap"
)

// File replays a collection previously written with schedule.SaveJSON.
// The URL passed to Fetch is a filesystem path.
type File struct {
	log *zap.Logger
}

func NewFile(log *zap.Logger) *File {
	if log == nil {
		log = zap.NewNop()
	}
	return &File{log: log}
}

func (f *File) Fetch(_ context.Context, path string) model.Collection {
	c, err := schedule.LoadJSON(path)
	if err != nil {
		f.log.Error("file: loading saved schedule failed", zap.String("path", path), zap.Error(err))
		return model.Empty()
	}
	f.log.Info("file: loaded saved schedule", zap.String("path", path), zap.Int("sessions", c.Count()))
	return c
}
