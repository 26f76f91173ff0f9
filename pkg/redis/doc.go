// Package redis connects to the Redis server that backs the event stream
// publisher.
//
// Connect parses REDIS_URL, pings the server and retries according to Config.
// Healthcheck returns a probe suitable for the readiness endpoint.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Sentinel errors such as ErrRedisNotReady are joined with the underlying
// go-redis error, so errors.Is works on both.
package redis
