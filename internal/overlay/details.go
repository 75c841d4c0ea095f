package overlay

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/spacehole-rogue/starview/internal/dataservice"
	"github.com/spacehole-rogue/starview/internal/logging"
	"github.com/spacehole-rogue/starview/internal/world"
)

type detail struct {
	movement *world.Movement
	err      error
}

// fetchDetails asks for the detail of every id, at most limit at a time.
// Each id's error is kept in its own slot; one failure never cancels the
// others.
func fetchDetails(ctx context.Context, svc dataservice.Service, ids []string, limit int, log logging.Log) []detail {
	out := make([]detail, len(ids))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i].err = err
				return nil
			}
			res, err := svc.FetchEntityDetail(ctx, id)
			d, err := dataservice.Unwrap("FetchEntityDetail", res, err)
			if err != nil {
				log.Debug("movement order unavailable", logging.String("id", id), logging.Err(err))
				out[i].err = err
				return nil
			}
			out[i].movement = d.Movement
			return nil
		})
	}
	_ = g.Wait()
	return out
}
