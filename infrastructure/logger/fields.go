package logger

import (
	"time"

	"go.uber.org/zap"
)

func String(key, val string) Field          { return zap.String(key, val) }
func Strings(key string, val []string) Field { return zap.Strings(key, val) }
func Int(key string, val int) Field          { return zap.Int(key, val) }
func Int64(key string, val int64) Field      { return zap.Int64(key, val) }
func Float64(key string, val float64) Field  { return zap.Float64(key, val) }
func Bool(key string, val bool) Field        { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}
func Time(key string, val time.Time) Field { return zap.Time(key, val) }
func Any(key string, val any) Field        { return zap.Any(key, val) }

// Error attaches err under the "error" key.
func Error(err error) Field { return zap.Error(err) }

// Domain identifiers, so every component logs them under the same keys.

func CrawlerID(id string) Field { return zap.String("crawler_id", id) }
func RunID(id string) Field     { return zap.String("run_id", id) }
func ItemID(id string) Field    { return zap.String("item_id", id) }
func PostID(id string) Field    { return zap.String("post_id", id) }
