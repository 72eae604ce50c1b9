package redis

import "testing"

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("scope", "id"): "fleet:idempotency:scope:id",
		client.RateLimitKey("scope"):         "fleet:rate_limit:scope",
		client.CacheKey("project", "P1"):     "fleet:cache:project:P1",
		client.LockKey("cron"):               "fleet:lock:cron",
		client.CacheKey("project", " "):      "fleet:cache:project",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("got %q want %q", got, want)
		}
	}
}
