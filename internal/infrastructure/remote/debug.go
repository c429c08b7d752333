package remote

import "github.com/rs/zerolog"

// restyLogger routes resty's own log lines through zerolog. With
// WERK_API_DEBUG=true resty logs full request and response dumps at debug
// level.
type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.log.Error().Msgf(format, v...)
}

// Warnf logs at debug: resty warns about every error body it cannot decode,
// and failed calls are already logged by Client.do.
func (l restyLogger) Warnf(format string, v ...any) {
	l.log.Debug().Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.log.Debug().Msgf(format, v...)
}
