package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes run activity to a rotated file under .autopatch/. Process
// steps are additionally echoed to stdout unless quiet mode is set.
type Logger struct {
	logger   *log.Logger
	quiet    bool
	jsonMode bool
	runID    string
}

var (
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the singleton Logger, creating it on first use. The
// quiet flag can be overridden on subsequent calls.
func GetLogger(quiet bool) *Logger {
	once.Do(func() {
		logFile := &lumberjack.Logger{
			Filename:   ".autopatch/workspace.log",
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		globalLogger = &Logger{
			logger: log.New(logFile, "", log.LstdFlags),
			runID:  uuid.NewString(),
		}
	})
	globalLogger.quiet = quiet
	if os.Getenv("AUTOPATCH_JSON_LOGS") == "1" {
		globalLogger.jsonMode = true
	}
	return globalLogger
}

// RunID identifies this process run; it is attached to persisted results so
// log lines and output records can be correlated.
func (w *Logger) RunID() string {
	return w.runID
}

// Close flushes and closes the underlying log file.
func (w *Logger) Close() error {
	if logFile, ok := w.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}

// LogProcessStep logs the current step and prints it for the user.
func (w *Logger) LogProcessStep(step string) {
	w.Logf("Process Step: %s", step)
	if !w.quiet {
		fmt.Println(step)
	}
}

// Log logs a general message only to the log file.
func (w *Logger) Log(message string) {
	if w.jsonMode {
		_ = json.NewEncoder(w.logger.Writer()).Encode(map[string]any{"level": "info", "msg": message, "run_id": w.runID})
		return
	}
	w.logger.Print(message)
}

// Logf logs a formatted message only to the log file.
func (w *Logger) Logf(format string, v ...interface{}) {
	if w.jsonMode {
		w.Log(fmt.Sprintf(format, v...))
		return
	}
	w.logger.Printf(format, v...)
}

// LogError logs an error to the log file.
func (w *Logger) LogError(err error) {
	if w.jsonMode {
		_ = json.NewEncoder(w.logger.Writer()).Encode(map[string]any{"level": "error", "error": err.Error(), "run_id": w.runID})
		return
	}
	w.logger.Printf("Error: %s", err)
}
