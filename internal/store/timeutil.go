package store

import "time"

// Records keep second precision; the upstream APIs report Unix seconds.
func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func truncate(t time.Time) time.Time {
	return unixToTime(t.Unix())
}
