package logging

import (
	"io"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/2beens/trackfit/pkg"
)

const (
	logFileMaxSizeMB  = 50
	logFileMaxBackups = 10
	logFileMaxAgeDays = 30
)

type LoggerSetupParams struct {
	LogFileName   string
	LogToStdout   bool
	LogLevel      string
	LogFormatJSON bool
	Environment   string
	// Release is reported to sentry, usually the last commit hash.
	Release          string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the package level logrus logger. The returned func closes
// the log file, if any.
func Setup(params LoggerSetupParams) func() error {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.SentryEnabled {
		setupSentry(params)
	}

	out, closer := newOutput(params.LogFileName, params.LogToStdout)
	logrus.SetOutput(out)
	if closer == nil {
		logrus.Println("writing logs only to STDOUT")
		return func() error { return nil }
	}
	logrus.Printf("writing logs to [%s], stdout: %t", params.LogFileName, params.LogToStdout)
	return closer.Close
}

func setupSentry(params LoggerSetupParams) {
	err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		Release:          params.Release,
		TracesSampleRate: 0.2,
		ServerName:       params.SentryServerName,
	})
	if err != nil {
		logrus.Errorf("sentry.Init: %s", err)
		return
	}
	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Infoln("sentry hook added")
}

// newOutput returns stdout when there is no log file; otherwise a rotated file,
// combined with stdout when asked.
func newOutput(fileName string, toStdout bool) (io.Writer, io.Closer) {
	if fileName == "" {
		return os.Stdout, nil
	}
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}

	rotatingLogger := &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
		MaxAge:     logFileMaxAgeDays,
		Compress:   true,
	}
	if toStdout {
		combined := pkg.NewCombinedWriter(os.Stdout, rotatingLogger)
		return combined, rotatingLogger
	}
	return rotatingLogger, rotatingLogger
}

func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.TraceLevel
	}
}
