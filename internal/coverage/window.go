package coverage

import "time"

// HistoryRange returns the inclusive calendar bounds of the full history
// window for this configuration, for callers that fetch the feeds.
func (c Config) HistoryRange() (start, end time.Time) {
	cc := c.withDefaults()
	return cc.historyStart(), cc.End
}
