package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Types int

const (
	Info Types = iota
	Error
	Warn
	Fatal
)

type Message struct {
	Timestamp time.Time
	Tag       string
	Message   string
	LogTypes  Types
}

type Logger struct {
	view      io.Writer
	tag       string
	dev       bool
	sink      *zap.Logger
	logChan   chan Message
	closeChan chan struct{}
	closeOnce *sync.Once
}

var (
	logManager *Logger
	once       sync.Once
)

// InitLogger configures the shared log manager. When logPath is set, every
// message is also written as JSON to a rotating file in that directory.
func InitLogger(dev bool, logPath string, view io.Writer) {
	once.Do(func() {
		logManager = &Logger{
			view:      view,
			dev:       dev,
			logChan:   make(chan Message, 100),
			closeChan: make(chan struct{}),
			closeOnce: &sync.Once{},
		}
		if logPath != "" {
			if err := os.MkdirAll(logPath, 0o755); err != nil {
				log.Fatalf("Failed to create log directory: %s", err)
			}
			logManager.sink = newFileSink(filepath.Join(logPath, "codeagent.log"))
		}

		go logManager.processLogs()
	})
}

func newFileSink(filePath string) *zap.Logger {
	rotator := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), zap.InfoLevel)
	return zap.New(core)
}

// NewLogger returns a logger tagged with the given component name. Before
// InitLogger runs it returns a logger that discards everything.
func NewLogger(tag string) *Logger {
	if logManager == nil {
		return &Logger{tag: tag}
	}
	return &Logger{
		view:      logManager.view,
		tag:       tag,
		dev:       logManager.dev,
		sink:      logManager.sink,
		logChan:   logManager.logChan,
		closeChan: logManager.closeChan,
		closeOnce: logManager.closeOnce,
	}
}

func (l *Logger) processLogs() {
	for {
		select {
		case msg := <-l.logChan:
			l.write(msg)
		case <-l.closeChan:
			for {
				select {
				case msg := <-l.logChan:
					l.write(msg)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(msg Message) {
	if l.sink == nil {
		return
	}
	fields := []zap.Field{zap.String("tag", msg.Tag), zap.Time("at", msg.Timestamp)}
	switch msg.LogTypes {
	case Error, Fatal:
		l.sink.Error(msg.Message, fields...)
	case Warn:
		l.sink.Warn(msg.Message, fields...)
	default:
		l.sink.Info(msg.Message, fields...)
	}
}

func (l *Logger) log(logTypes Types, v ...interface{}) {
	message := fmt.Sprintln(v...)
	message = message[:len(message)-1]
	if l.dev {
		if l.view != nil {
			var format string
			switch logTypes {
			case Info:
				format = "[green]DEBUG (%s): %s[-]\n"
			case Error, Fatal:
				format = "[red]DEBUG (%s): %s[-]\n"
			case Warn:
				format = "[yellow]DEBUG (%s): %s[-]\n"
			}
			fmt.Fprintf(l.view, format, l.tag, message)
		} else {
			log.Printf("[%s] %s: %s", l.tag, logTypes, message)
		}
	}

	if l.sink != nil && l.logChan != nil {
		select {
		case l.logChan <- Message{Timestamp: time.Now(), Tag: l.tag, Message: message, LogTypes: logTypes}:
		case <-l.closeChan:
		}
	}
}

func (l *Logger) Info(v ...interface{}) {
	l.log(Info, v...)
}

func (l *Logger) Error(v ...interface{}) {
	l.log(Error, v...)
}

func (l *Logger) Warn(v ...interface{}) {
	l.log(Warn, v...)
}

func (l *Logger) Fatal(v ...interface{}) {
	l.log(Fatal, v...)
	l.Close()
	os.Exit(1)
}

// Close flushes pending file output. Safe to call more than once.
func (l *Logger) Close() {
	if l.closeOnce == nil {
		return
	}
	l.closeOnce.Do(func() {
		close(l.closeChan)
		if l.sink != nil {
			_ = l.sink.Sync()
		}
	})
}

func (t Types) String() string {
	switch t {
	case Info:
		return "INFO"
	case Error:
		return "ERROR"
	case Warn:
		return "WARN"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}
