package kv

import "strconv"

func int64String(v int64) string {
	return strconv.FormatInt(v, 10)
}
