// internal/config/constants.go
package config

import "time"

// アプリケーション情報
const (
	AppName    = "CourseProgressKeep"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort           = ":8080"
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
	DefaultAuthEnabled          = true
	DefaultPassThreshold        = 70.0
	DefaultPassiveCap           = 95.0
	DefaultDebounceWindow       = 2 * time.Second
	DefaultRequestTimeout       = 10 * time.Second
	DefaultCachePath            = "progress_cache.db"
	DefaultDashboardRefreshCron = "*/15 * * * *"
	DefaultCatalogPath          = "configs/courses.yaml"
)

// DefaultCheckpoints は書き込みを発生させるスクロール進捗のしきい値 (100 はクイズ合格時のみ)
var DefaultCheckpoints = []int{25, 50, 75, 95}
