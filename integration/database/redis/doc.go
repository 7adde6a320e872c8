// Package redis connects to Redis for session storage.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := session.NewRedisStore[certrequest.State](client, "session:")
//
// Connect pings with exponential backoff until Redis answers or the
// attempts run out. Healthcheck returns a probe for the readiness endpoint.
package redis
