package status

import "github.com/rs/zerolog"

// LogSink mirrors events into a zerolog logger.
type LogSink struct {
	Logger zerolog.Logger
}

func (l LogSink) Emit(ev Event) {
	var e *zerolog.Event
	switch ev.Kind {
	case KindError:
		e = l.Logger.Warn()
	case KindOCRPage, KindScan:
		e = l.Logger.Debug()
	default:
		e = l.Logger.Info()
	}
	if ev.File != "" {
		e = e.Str("file", ev.File)
	}
	e.Str("kind", string(ev.Kind)).Msg(ev.Message)
}
