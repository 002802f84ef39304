package log

// Builder provides a fluent API for building loggers.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg   *Config
	sinks []Sink
	err   error // Accumulate errors for deferred handling
}

// NewBuilder creates a new builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build validates the configuration and starts a new Logger.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewLogger(b.cfg, b.sinks...)
}

// Config returns a copy of the accumulated configuration.
func (b *Builder) Config() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cfg.Clone(), nil
}

// Level sets the minimum log level.
func (b *Builder) Level(level int64) *Builder {
	b.cfg.Level = level
	return b
}

// LevelString sets the log level from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	levelVal, err := ParseLevel(level)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = levelVal
	return b
}

// Name sets the registry name.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// TimestampFormat sets the Go time layout used for the timestamp field.
func (b *Builder) TimestampFormat(layout string) *Builder {
	b.cfg.TimestampFormat = layout
	return b
}

// EnableConsole toggles the console sink.
func (b *Builder) EnableConsole(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

// ConsoleTarget selects stdout or stderr.
func (b *Builder) ConsoleTarget(target string) *Builder {
	b.cfg.ConsoleTarget = target
	return b
}

// Color sets the console color mode.
func (b *Builder) Color(mode string) *Builder {
	b.cfg.Color = mode
	return b
}

// EnableFile toggles the file sink.
func (b *Builder) EnableFile(enable bool) *Builder {
	b.cfg.EnableFile = enable
	return b
}

// Directory sets the log directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// FileName sets the log file base name.
func (b *Builder) FileName(name string) *Builder {
	b.cfg.FileName = name
	return b
}

// Extension sets the log file extension, without the dot.
func (b *Builder) Extension(ext string) *Builder {
	b.cfg.Extension = ext
	return b
}

// MaxSizeMB sets the file size that triggers rotation.
func (b *Builder) MaxSizeMB(size int64) *Builder {
	b.cfg.MaxSizeMB = size
	return b
}

// MaxBackups sets how many rotated files are kept.
func (b *Builder) MaxBackups(n int64) *Builder {
	b.cfg.MaxBackups = n
	return b
}

// Compress toggles gzip of rotated files.
func (b *Builder) Compress(enable bool) *Builder {
	b.cfg.Compress = enable
	return b
}

// HeartbeatIntervalS sets the heartbeat interval, 0 disables it.
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// Sink adds an extra sink after the configured console and file sinks.
func (b *Builder) Sink(s Sink) *Builder {
	if s != nil {
		b.sinks = append(b.sinks, s)
	}
	return b
}

// Example usage:
// logger, err := log.NewBuilder().
//
//	Name("access").
//	LevelString("debug").
//	EnableFile(true).
//	Directory("/var/log/ccerve").
//	Build()
//
// if err == nil {
//
//	 defer logger.Shutdown()
//	 logger.Info("Logger initialized successfully")
//
// }
