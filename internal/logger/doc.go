// Package logger provides structured logging for ytplfilter.
//
// Features:
//   - Multiple log levels (TRACE, DEBUG, INFO, WARN, ERROR)
//   - Component-based filtering
//   - Multiple output formats (text, JSON, color)
//   - Configuration from a JSON file or YTPLFILTER_LOG_* environment variables
//
// Usage:
//
//	log := logger.WithComponent(logger.ComponentFetcher)
//	log.Info("page fetched", logger.Fields{"items": 50})
//
//	config := logger.DefaultConfig()
//	config.Level = logger.DEBUG
//	config.Format = logger.FormatJSON
//	logger.SetGlobalLogger(logger.New(config))
//
// Components:
//   - ComponentApp: CLI and facade logs
//   - ComponentFetcher: pagination and filtering
//   - ComponentDataAPI: REST page source
//   - ComponentAPIv3: SDK page source
//   - ComponentInnertube: keyless web page source
//   - ComponentClient: HTTP client
//   - ComponentDownloader: thumbnail downloads
//   - ComponentQuery: query parsing
package logger
