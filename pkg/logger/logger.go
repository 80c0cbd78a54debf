package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	envDevelopment = "development"
	fieldService   = "service"
	fieldComponent = "component"
)

// Config opciones para el logger.
type Config struct {
	Env     string    // development: consola legible; cualquier otro: JSON
	Level   string    // debug, info, warn, error
	Service string    // opcional; se agrega como campo "service" en cada entrada
	Output  io.Writer // opcional; por defecto os.Stdout
}

// Logger envoltura de zerolog que se inyecta en los casos de uso y adaptadores.
type Logger struct {
	zl zerolog.Logger
}

// New crea el logger de la aplicación y lo instala también como logger global de zerolog.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Env == envDevelopment {
		out = zerolog.ConsoleWriter{Out: out}
	}

	ctx := zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str(fieldService, cfg.Service)
	}
	zl := ctx.Logger()
	log.Logger = zl

	return &Logger{zl: zl}
}

// Nop descarta todo.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// parseLevel acepta los niveles de zerolog; vacío o desconocido cae a info.
func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Component sublogger etiquetado con el módulo que escribe (ventas, outbox, http...).
func (l *Logger) Component(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(fieldComponent, name).Logger()}
}
