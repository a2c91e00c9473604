package synclog

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/eringen/notionpub/notion"
)

// maxMessage bounds the stored error text.
const maxMessage = 500

// FromReport classifies a sync report.
func FromReport(rep notion.SyncReport) Run {
	r := Run{
		StartedAt: rep.Started,
		Duration:  rep.Duration,
		Outcome:   OutcomeOK,
		PostCount: rep.Posts,
	}
	if rep.Err == nil {
		return r
	}
	r.PostCount = 0
	r.ErrorKind = string(notion.KindOf(rep.Err))
	r.Message = rep.Err.Error()
	r.Message = truncate(r.Message, maxMessage)
	if notion.IsUnavailable(rep.Err) {
		r.Outcome = OutcomeUnavailable
	} else {
		r.Outcome = OutcomeFailed
	}
	return r
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Observer returns a callback for notion.WithObserver that journals every
// report and keeps at most keep rows. Journal failures are logged and
// never reach the sync path.
func (s *Store) Observer(log *zap.Logger, keep int) func(notion.SyncReport) {
	if log == nil {
		log = zap.NewNop()
	}
	return func(rep notion.SyncReport) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		run := FromReport(rep)
		if _, err := s.Record(ctx, run); err != nil {
			log.Error("sync journal write failed", zap.Error(err))
			return
		}
		if keep > 0 {
			if n, err := s.Prune(ctx, keep); err != nil {
				log.Warn("sync journal prune failed", zap.Error(err))
			} else if n > 0 {
				log.Debug("sync journal pruned", zap.Int64("removed", n))
			}
		}
	}
}
