package log

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/alpacahq/gocaptable/utils/env"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once      sync.Once
	appLogger AppLogger
)

type AppLogger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Panic(msg string, keysAndValues ...interface{})
	Fatal(msg string, keysAndValues ...interface{})
	SetDeploymentLevel(depl string)
	AddCallback(key string, level zapcore.Level, handler func(msg interface{})) error
	RemoveCallback(key string) error
}

func NewLogger() (AppLogger, error) {
	atom := zap.NewAtomicLevel()
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.StacktraceKey = "stack"
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	debug, _ := strconv.ParseBool(env.GetVar("DEBUG"))
	if debug {
		atom.SetLevel(zap.DebugLevel)
	} else {
		atom.SetLevel(zap.InfoLevel)
	}

	encoder := zapcore.NewConsoleEncoder(encoderCfg)
	if json, _ := strconv.ParseBool(env.GetVar("LOG_JSON")); json {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	zl := zap.New(zapcore.NewCore(
		encoder,
		zapcore.Lock(os.Stdout),
		atom,
	),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.AddCaller(),
		zap.AddCallerSkip(2),
	)

	return &logger{zap: zl.Sugar()}, nil
}

type logCallback struct {
	level   zapcore.Level
	handler func(text interface{})
}

type logger struct {
	zap       *zap.SugaredLogger
	callbacks sync.Map
	depl      string
}

func (l *logger) runCallbacks(level zapcore.Level, msg string, keysAndValues ...interface{}) {
	var message map[string]interface{}

	l.callbacks.Range(func(key, value interface{}) bool {
		lc := value.(logCallback)
		if lc.level <= level {
			if message == nil {
				message = l.logToMessage(level, msg, keysAndValues)
			}
			lc.handler(message)
		}
		return true
	})
}

func (l *logger) logToMessage(level zapcore.Level, msg string, pairs []interface{}) map[string]interface{} {
	message := map[string]interface{}{
		"level":      level.String(),
		"message":    msg,
		"deployment": l.depl,
		"service":    os.Args[0],
	}

	if len(pairs)%2 != 0 {
		return message
	}

	for i := 0; i < len(pairs)-1; i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}

		switch v := pairs[i+1].(type) {
		case time.Time:
			message[key] = v.Format(time.RFC3339)
		case *time.Time:
			message[key] = v.Format(time.RFC3339)
		default:
			message[key] = fmt.Sprintf("%v", v)
		}
	}

	return message
}

func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.runCallbacks(zapcore.DebugLevel, msg, keysAndValues...)
	l.zap.Debugw(msg, keysAndValues...)
}

func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.runCallbacks(zapcore.InfoLevel, msg, keysAndValues...)
	l.zap.Infow(msg, keysAndValues...)
}

func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.runCallbacks(zapcore.WarnLevel, msg, keysAndValues...)
	l.zap.Warnw(msg, keysAndValues...)
}

func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.runCallbacks(zapcore.ErrorLevel, msg, keysAndValues...)
	l.zap.Errorw(msg, keysAndValues...)
	l.zap.Sync()
}

func (l *logger) Panic(msg string, keysAndValues ...interface{}) {
	l.runCallbacks(zapcore.PanicLevel, msg, keysAndValues...)
	l.zap.Panicw(msg, keysAndValues...)
}

func (l *logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.runCallbacks(zapcore.FatalLevel, msg, keysAndValues...)
	l.zap.Fatalw(msg, keysAndValues...)
}

func (l *logger) SetDeploymentLevel(depl string) {
	l.depl = depl
}

// AddCallback registers a callback function with the
// logger to be executed based on the supplied level.
func (l *logger) AddCallback(key string, level zapcore.Level, handler func(msg interface{})) error {
	lc := logCallback{level: level, handler: handler}
	if _, loaded := l.callbacks.LoadOrStore(key, lc); loaded {
		return fmt.Errorf("callback already added with key: %s", key)
	}
	return nil
}

// RemoveCallback removes a callback from the logger by key.
func (l *logger) RemoveCallback(key string) error {
	if _, ok := l.callbacks.Load(key); !ok {
		return fmt.Errorf("no callback added with key: %s", key)
	}
	l.callbacks.Delete(key)
	return nil
}

// Logger returns the singleton logger to be used for the duration
// of the application's runtime
func Logger() AppLogger {
	once.Do(func() {
		var err error
		appLogger, err = NewLogger()
		if err != nil {
			panic(err)
		}
	})
	return appLogger
}

// Debug logs a debug message followed by a set of key
// value pairs. Only logs when environment variable
// DEBUG=true.
func Debug(msg string, keysAndValues ...interface{}) {
	Logger().Debug(msg, keysAndValues...)
}

// Info logs an info message followed by a set of key
// value pairs.
func Info(msg string, keysAndValues ...interface{}) {
	Logger().Info(msg, keysAndValues...)
}

// Warn logs an warning message followed by a set of key
// value pairs.
func Warn(msg string, keysAndValues ...interface{}) {
	Logger().Warn(msg, keysAndValues...)
}

// Error logs an error message followed by a set of key
// value pairs, including a stack trace denoted by the
// key "stack".
func Error(msg string, keysAndValues ...interface{}) {
	Logger().Error(msg, keysAndValues...)
}

// Panic logs an error message followed by a set of key
// value pairs, then panics.
func Panic(msg string, keysAndValues ...interface{}) {
	Logger().Panic(msg, keysAndValues...)
}

// Fatal logs a fatal error message followed by a set of key
// value pairs, then calls os.Exit(1).
func Fatal(msg string, keysAndValues ...interface{}) {
	Logger().Fatal(msg, keysAndValues...)
}
