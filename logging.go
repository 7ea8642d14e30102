package phiguard

import (
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// scrubbingCore is a zapcore.Core wrapper that scrubs the message and every
// field at the lowest emission point. Child loggers created with With or
// Named inherit the wrapper, so no derived logger can bypass scrubbing; the
// guarantee lives here rather than at each call site.
type scrubbingCore struct {
	zapcore.Core
	scrubber *Scrubber
}

// NewScrubbingCore wraps inner so that everything written through it is
// scrubbed first.
func NewScrubbingCore(inner zapcore.Core, scrubber *Scrubber) zapcore.Core {
	return &scrubbingCore{Core: inner, scrubber: scrubber}
}

func (c *scrubbingCore) With(fields []zapcore.Field) zapcore.Core {
	return &scrubbingCore{
		Core:     c.Core.With(c.scrubFields(fields)),
		scrubber: c.scrubber,
	}
}

func (c *scrubbingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *scrubbingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = c.scrubber.ScrubText(ent.Message)
	return c.Core.Write(ent, c.scrubFields(fields))
}

func (c *scrubbingCore) scrubFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		f.Key = c.scrubber.ScrubText(f.Key)
		switch f.Type {
		case zapcore.StringType:
			f.String = c.scrubber.ScrubText(f.String)
		case zapcore.ByteStringType:
			if b, ok := f.Interface.([]byte); ok {
				f.Interface = []byte(c.scrubber.ScrubText(string(b)))
			}
		case zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok {
				f.Interface = errors.New(c.scrubber.ScrubText(err.Error()))
			}
		case zapcore.StringerType, zapcore.ReflectType:
			f = zap.Any(f.Key, c.scrubber.ScrubObject(f.Interface))
		default:
			if f.Interface != nil {
				f.Interface = c.scrubber.ScrubObject(f.Interface)
			}
		}
		out[i] = f
	}
	return out
}

// NewLogger builds a zap logger whose core is wrapped with scrubbing. It is
// the intended logger for every collaborator that might handle
// request-derived content.
func NewLogger(debug bool, scrubber *Scrubber) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return NewScrubbingCore(core, scrubber)
	})), nil
}
