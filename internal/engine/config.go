package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/0xlemi/xentuner/internal/scale"
	"github.com/0xlemi/xentuner/internal/tuning"
	"github.com/charmbracelet/log"
)

// State is the lifecycle stage of a Configuration.
type State int32

const (
	Unconfigured State = iota
	DefaultLoaded
	UserLoaded
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case DefaultLoaded:
		return "default"
	case UserLoaded:
		return "user"
	default:
		return "unknown"
	}
}

// Tables is an immutable pairing of a scale and the map generated from it.
type Tables struct {
	Scale *scale.Scale
	Map   *tuning.Map
	State State
}

// Configuration owns the active scale and tuning map. Loading builds a new
// Tables value and swaps it in atomically, so the audio path always sees
// either the old or the new map and never a partly written one.
type Configuration struct {
	base   float64
	half   int
	logger *log.Logger

	mu      sync.Mutex // serializes loads
	current atomic.Pointer[Tables]
}

// NewConfiguration returns an unconfigured Configuration that will build
// maps of the given half size around base.
func NewConfiguration(base float64, half int, logger *log.Logger) *Configuration {
	if logger == nil {
		logger = log.Default()
	}
	return &Configuration{base: base, half: half, logger: logger}
}

// Current returns the active tables, or nil before the first load.
func (c *Configuration) Current() *Tables {
	return c.current.Load()
}

// State returns the lifecycle stage.
func (c *Configuration) State() State {
	t := c.current.Load()
	if t == nil {
		return Unconfigured
	}
	return t.State
}

// Base returns the base frequency maps are built around.
func (c *Configuration) Base() float64 {
	return c.base
}

// LoadDefault installs the built-in 24-EDO scale.
func (c *Configuration) LoadDefault() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.install(scale.Default(), DefaultLoaded)
}

// Load installs a user scale. If the map cannot be built the default scale
// is installed instead and the build error is returned.
func (c *Configuration) Load(s *scale.Scale) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.install(s, UserLoaded); err != nil {
		c.logger.Warn("falling back to default scale", "err", err)
		if derr := c.install(scale.Default(), DefaultLoaded); derr != nil {
			return fmt.Errorf("install default scale: %w", derr)
		}
		return err
	}
	return nil
}

// Import parses text with imp and loads the result. Import failures fall
// back to the default scale; the returned error is informational only.
func (c *Configuration) Import(text string, imp scale.Importer) error {
	s, err := imp(text)
	if err != nil {
		c.logger.Warn("scale import failed, using default", "err", err)
		if derr := c.LoadDefault(); derr != nil {
			return fmt.Errorf("install default scale: %w", derr)
		}
		return fmt.Errorf("import scale: %w", err)
	}

	return c.Load(s)
}

func (c *Configuration) install(s *scale.Scale, state State) error {
	m, err := tuning.GenerateSize(s, c.base, c.half)
	if err != nil {
		return fmt.Errorf("generate tuning map: %w", err)
	}

	c.current.Store(&Tables{Scale: s, Map: m, State: state})
	c.logger.Info("scale loaded",
		"label", s.Label(),
		"notes", s.Notes(),
		"period", s.Period(),
		"state", state,
	)
	return nil
}
