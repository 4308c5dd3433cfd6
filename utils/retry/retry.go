package retry

import "time"

// Do runs fn up to attempts times, sleeping backoff between tries. Only
// errors retryable says yes to are retried; anything else returns straight
// away. The last error is returned when every attempt fails.
func Do(attempts int, backoff time.Duration, retryable func(error) bool, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 && backoff > 0 {
			time.Sleep(backoff)
		}
		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
	}
	return err
}
