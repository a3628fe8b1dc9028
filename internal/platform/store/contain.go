package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nkint/yttrex/internal/platform/alarm"
)

// contained runs one pipeline-shaped operation under the containment policy.
// Acquisition failures propagate. An execution failure is reported as exactly
// one alarm record carrying the operation name and its original inputs, and
// the caller receives an empty slice with a nil error: a consumer cannot tell
// "no data" from "query failed" by the return value alone, which is the
// deliberate availability trade for reporting-style surfaces
func (c Collection) contained(
	ctx context.Context,
	caller string,
	info map[string]any,
	run func(ctx context.Context, d Docs) ([]bson.M, error),
) ([]bson.M, error) {
	var out []bson.M
	var opErr error
	if err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		out, opErr = run(ctx, conn.Docs(c.name))
		return nil
	}); err != nil {
		return nil, err
	}

	if opErr != nil {
		c.st.alarm(ctx, caller, opErr, info)
		return []bson.M{}, nil
	}

	c.st.Log.Debug().Str("collection", c.name).Str("op", caller).Int("results", len(out)).Msg("pipeline ok")
	return out, nil
}

// alarm forwards a containment report to the sink. Fire and forget: the sink
// has no way to fail the degraded outcome
func (s *Store) alarm(ctx context.Context, caller string, cause error, info map[string]any) {
	s.Log.Error().Str("caller", caller).Err(cause).Msg("pipeline degraded")
	if s.Alarms != nil {
		s.Alarms.Report(ctx, alarm.NewRecord(caller, cause, info))
	}
}
