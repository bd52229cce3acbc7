package qrid

import (
	"context"
	"io"

	"github.com/privacybydesign/qrid/internal/common"
	"golang.org/x/sync/errgroup"
)

// NewLockedReader wraps r so that concurrent sessions can share it.
func NewLockedReader(r io.Reader) io.Reader {
	return common.NewLockedReader(r)
}

// RunSessions runs independent sessions concurrently and returns their verdicts in
// the order given. Sessions share no state; when they draw challenges from a common
// source, wrap it in a LockedReader. The error is only non-nil if one of the
// sessions had run before.
func RunSessions(ctx context.Context, sessions ...*Session) ([]SessionVerdict, error) {
	verdicts := make([]SessionVerdict, len(sessions))
	var g errgroup.Group
	for i, s := range sessions {
		g.Go(func() error {
			v, err := s.Run(ctx)
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}
