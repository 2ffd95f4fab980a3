package settings

import (
	"context"
	"sync"

	"github.com/kat-co/vala"

	"github.com/trezcool/ecole/core"
)

const StorageKey = "schoolSettings"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type Settings struct {
	SchoolName     string `json:"school_name"`
	SchoolLocation string `json:"school_location"`
	SchoolPhone    string `json:"school_phone"`
	OfficeEmail    string `json:"office_email"` // receives registration receipts when set
	Theme          Theme  `json:"theme"`
	SidebarVisible bool   `json:"sidebar_visible"`
}

func Defaults() Settings {
	return Settings{
		SchoolName:     "École Sans Base",
		Theme:          ThemeSystem,
		SidebarVisible: true,
	}
}

// UpdateSettings is a partial update; nil fields are left untouched.
type UpdateSettings struct {
	SchoolName     *string `json:"school_name" validate:"omitempty,notblank"`
	SchoolLocation *string `json:"school_location"`
	SchoolPhone    *string `json:"school_phone"`
	OfficeEmail    *string `json:"office_email"` // "" clears it
	Theme          *Theme  `json:"theme" validate:"omitempty,oneof=light dark system"`
	SidebarVisible *bool   `json:"sidebar_visible"`
}

func (us *UpdateSettings) Validate() error {
	clean := func(s *string, lower bool) {
		if s != nil {
			*s = core.CleanString(*s, lower)
		}
	}
	clean(us.SchoolName, false)
	clean(us.SchoolLocation, false)
	clean(us.SchoolPhone, false)
	clean(us.OfficeEmail, true)
	if us.Theme != nil {
		th := Theme(core.CleanString(string(*us.Theme), true /* lower */))
		us.Theme = &th
	}
	if err := core.ValidateStruct(us); err != nil {
		return err
	}
	if us.OfficeEmail != nil && *us.OfficeEmail != "" {
		if err := core.Validate.Var(*us.OfficeEmail, "email"); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "office_email", Error: "office_email must be a valid email address"})
		}
	}
	return nil
}

func (us UpdateSettings) apply(s Settings) Settings {
	if us.SchoolName != nil {
		s.SchoolName = *us.SchoolName
	}
	if us.SchoolLocation != nil {
		s.SchoolLocation = *us.SchoolLocation
	}
	if us.SchoolPhone != nil {
		s.SchoolPhone = *us.SchoolPhone
	}
	if us.OfficeEmail != nil {
		s.OfficeEmail = *us.OfficeEmail
	}
	if us.Theme != nil {
		s.Theme = *us.Theme
	}
	if us.SidebarVisible != nil {
		s.SidebarVisible = *us.SidebarVisible
	}
	return s
}

// Store keeps the school settings, stored values merged over Defaults.
type Store struct {
	kv  core.KVStore
	log core.Logger

	mu       sync.RWMutex
	settings Settings
}

func NewStore(kv core.KVStore, logger core.Logger) *Store {
	vala.BeginValidation().Validate(
		core.NotNil(kv, "kv"),
		core.NotNil(logger, "logger"),
	).CheckAndPanic()

	return &Store{kv: kv, log: logger, settings: Defaults()}
}

func (s *Store) Init(ctx context.Context) error {
	st := Defaults()
	if found, err := core.LoadOrReset(ctx, s.kv, s.log, StorageKey, &st); err != nil {
		return err
	} else if !found {
		st = Defaults()
	}
	s.mu.Lock()
	s.settings = st
	s.mu.Unlock()
	return nil
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Store) Update(ctx context.Context, us UpdateSettings) (Settings, error) {
	if err := us.Validate(); err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := us.apply(s.settings)
	if err := core.SaveJSON(ctx, s.kv, StorageKey, next); err != nil {
		return Settings{}, err
	}
	s.settings = next
	return next, nil
}
