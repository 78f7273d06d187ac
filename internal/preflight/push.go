package preflight

import "context"

// RegisterDevicePush enrolls this machine with the remote push relay.
//
// The relay does not exist yet. Registration succeeds unconditionally so
// startup exercises the real call order today and only the transport
// changes when the relay lands.
func RegisterDevicePush(ctx context.Context, topic string) error {
	_ = ctx
	_ = topic
	return nil
}
