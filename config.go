package writeups

import "github.com/goliatone/go-writeups/internal/runtimeconfig"

var (
	ErrContentDirRequired      = runtimeconfig.ErrContentDirRequired
	ErrCacheTTLInvalid         = runtimeconfig.ErrCacheTTLInvalid
	ErrSweepScheduleRequired   = runtimeconfig.ErrSweepScheduleRequired
	ErrHTTPAddrRequired        = runtimeconfig.ErrHTTPAddrRequired
	ErrBasePathInvalid         = runtimeconfig.ErrBasePathInvalid
	ErrSiteBaseURLInvalid      = runtimeconfig.ErrSiteBaseURLInvalid
	ErrWatchDebounceInvalid    = runtimeconfig.ErrWatchDebounceInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	CacheConfig   = runtimeconfig.CacheConfig
	HTTPConfig    = runtimeconfig.HTTPConfig
	SiteConfig    = runtimeconfig.SiteConfig
	WatchConfig   = runtimeconfig.WatchConfig
	LoggingConfig = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
