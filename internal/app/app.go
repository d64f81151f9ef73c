package app

import (
	"time"

	"github.com/rs/zerolog"

	"scheduling-service/internal/events"
	"scheduling-service/internal/scheduling"
	"scheduling-service/internal/store"
	"scheduling-service/internal/validation"
)

type Config struct {
	FrontendURL string
	HostID      string
	SlotStep    time.Duration
}

// App holds the collaborators shared by every handler.
type App struct {
	Store     store.Store
	Events    events.Publisher
	Validator *validation.Validator
	Log       zerolog.Logger
	Config    Config

	now func() time.Time
}

func New(st store.Store, pub events.Publisher, log zerolog.Logger, cfg Config) (*App, error) {
	v, err := validation.New()
	if err != nil {
		return nil, err
	}
	if pub == nil {
		pub = events.Noop{}
	}
	if cfg.SlotStep <= 0 {
		cfg.SlotStep = scheduling.DefaultStep
	}
	return &App{
		Store:     st,
		Events:    pub,
		Validator: v,
		Log:       log,
		Config:    cfg,
		now:       time.Now,
	}, nil
}

func (a *App) Now() time.Time {
	return a.now().UTC()
}
