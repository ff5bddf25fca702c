package controller

import (
	"context"
	"log"
	"time"

	"github.com/cardbox/cardbox/internal/metadata"
	"github.com/cardbox/cardbox/internal/playlist"
	"github.com/cardbox/cardbox/internal/sensor"
	"github.com/cardbox/cardbox/internal/session"
)

// holdToggleThreshold is the number of consecutive empty polls that turns a
// card reappearing into a deliberate pause/resume gesture. A single-cycle
// dropout is sensor noise and ignored.
const holdToggleThreshold = 2

// Resolver maps a card identifier to an asset path.
type Resolver interface {
	Resolve(id sensor.CardID) (string, bool)
}

// Controller runs the kiosk's control loop: it polls the card sensor once
// per cycle and turns presence, absence and identity changes into playlist
// and playback decisions. It is the sole owner of all playback state; no
// other goroutine touches the playlist or session.
type Controller struct {
	sensor   sensor.Sensor
	resolver Resolver
	sess     *session.Session
	logger   *log.Logger

	pollInterval time.Duration
	allowedExts  []string

	// State carried across cycles.
	current    sensor.CardID
	hasCurrent bool
	list       playlist.Playlist
	absences   int
}

// New assembles a controller around its collaborators.
func New(snsr sensor.Sensor, resolver Resolver, sess *session.Session, pollInterval time.Duration, allowedExts []string, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		sensor:       snsr,
		resolver:     resolver,
		sess:         sess,
		logger:       logger,
		pollInterval: pollInterval,
		allowedExts:  allowedExts,
		list:         playlist.Empty(),
	}
}

// Run executes cycles until ctx is cancelled, sleeping the poll interval
// between them. Per-cycle failures are logged and degrade to "no state
// change"; Run itself only returns on cancellation.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		c.Step()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Step executes exactly one control cycle. Tests drive the state machine
// through Step directly instead of waiting on real time.
func (c *Controller) Step() {
	id, present, err := c.sensor.PollOnce()
	if err != nil {
		c.logger.Printf("sensor poll error: %v", err)
		present = false
	}

	switch {
	case present && c.hasCurrent && id == c.current && !c.list.Done():
		// Same card held. A reappearance after a sustained absence is the
		// lift-and-replace gesture; toggle pause. One missed cycle is noise.
		priorAbsences := c.absences
		c.absences = 0
		if priorAbsences >= holdToggleThreshold && c.sess.Active() {
			if c.sess.TogglePause() {
				c.logger.Printf("paused %s", c.sess.Path())
			} else {
				c.logger.Printf("resumed %s", c.sess.Path())
			}
		}

	case present:
		// New card, or the same card after its playlist ran out. An
		// unmapped card changes nothing; anything already playing keeps
		// going until a mapped card supersedes it.
		c.absences = 0

		path, ok := c.resolver.Resolve(id)
		if !ok {
			c.logger.Printf("card %s is not mapped", id)
			break
		}

		c.sess.StopAndDiscard()

		list, err := playlist.Build(path, c.allowedExts)
		if err != nil {
			c.logger.Printf("card %s: %v", id, err)
			break
		}

		c.current = id
		c.hasCurrent = true
		c.list = list
		c.logger.Printf("card %s selected %s (%d items)", id, path, list.Len())

	default:
		// No card. The identity is kept on purpose so a single missed poll
		// does not turn the same card into a "new" one next cycle.
		c.absences++
	}

	if c.sess.Active() && c.sess.Finished() {
		c.logger.Printf("finished %s", c.sess.Path())
		c.sess.StopAndDiscard()
		c.list.Advance()
	}

	if !c.sess.Active() && !c.list.Done() {
		item, _ := c.list.Current()
		if err := c.sess.Start(item); err != nil {
			// Cursor stays put; the item is retried next cycle until the
			// playlist is replaced or advances.
			c.logger.Printf("start %s: %v", item, err)
		} else {
			c.logger.Printf("playing %s: %s", item, metadata.Probe(item))
		}
	}
}
