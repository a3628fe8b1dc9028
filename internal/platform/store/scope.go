package store

import "context"

// scoped acquires a fresh connection for exactly one operation and releases it
// on every exit path: success, propagated error, and degraded error alike.
// Acquisition failures propagate to the caller untouched; a caller cannot get
// a useful degraded answer if it cannot even connect
func (s *Store) scoped(ctx context.Context, fn func(ctx context.Context, conn Conn) error) error {
	conn, err := s.Mongo.Dial(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(ctx); cerr != nil {
			s.Log.Warn().Err(cerr).Msg("mongo release failed")
		}
	}()
	return fn(ctx, conn)
}
