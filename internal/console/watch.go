package console

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// watchTimeout bounds one background refresh
const watchTimeout = 20 * time.Second

// startWatch schedules background refreshes of the active screen, replacing
// any earlier schedule.
func (c *Console) startWatch(spec string) error {
	c.stopWatch()

	cr := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	id, err := cr.AddFunc(spec, c.watchTick)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	cr.Start()

	c.cron, c.watchID, c.watched = cr, id, spec
	log.Debug("Watching with schedule %s", spec)
	return nil
}

// stopWatch reports whether a schedule was running
func (c *Console) stopWatch() bool {
	if c.cron == nil {
		return false
	}
	c.cron.Remove(c.watchID)
	<-c.cron.Stop().Done()
	c.cron, c.watchID, c.watched = nil, 0, ""
	return true
}

func (c *Console) watchTick() {
	s, err := c.current()
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), watchTimeout)
	defer cancel()

	if err := s.Refresh(ctx); err != nil {
		c.printf("\n%s\n", warnStyle.Render("! Background refresh of "+s.Name()+" failed: "+describe(err)))
		return
	}
	f := s.Render()
	c.printf("\n%s\n", hintStyle.Render(fmt.Sprintf("↻ %s refreshed at %s (%d total)", s.Name(), f.FetchedAt, f.Total)))
}
