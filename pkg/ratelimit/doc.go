// Package ratelimit provides rate limiting for the wallpaper sources.
//
// Two mechanisms are available: a token bucket that caps requests per refill
// period (used for the per-run request budget), and a Pacer that enforces a
// randomized delay between consecutive requests to the same host (the
// original collection scripts slept a fixed or random interval between
// downloads for the same reason).
//
// Example:
//
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//	pacer := ratelimit.NewPacer(500*time.Millisecond, 2*time.Second)
//	for _, url := range urls {
//		limiter.Wait()
//		pacer.Pace()
//		fetch(url)
//	}
package ratelimit
