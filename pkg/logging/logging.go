// pkg/logging/logging.go - timestamped session logging for the auto-installer
//
// Every process run gets its own YYYY-MM-DD-HHMMss directory under the
// configured log root holding a plain-text log plus optional JSON-lines and
// YAML event streams. Old session directories are pruned by RetentionPolicy.

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/windowsadmins/autoinstaller/pkg/config"
	"github.com/windowsadmins/autoinstaller/pkg/version"
	"gopkg.in/yaml.v3"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// LogEntry is one structured event as written to the JSON and YAML streams.
type LogEntry struct {
	Time       int64                  `json:"time" yaml:"time"`
	Timestamp  string                 `json:"timestamp" yaml:"timestamp"`
	Level      string                 `json:"level" yaml:"level"`
	Message    string                 `json:"message" yaml:"message"`
	Component  string                 `json:"component" yaml:"component"`
	PID        int64                  `json:"pid" yaml:"pid"`
	Hostname   string                 `json:"hostname" yaml:"hostname"`
	Version    string                 `json:"version" yaml:"version"`
	SessionID  string                 `json:"session_id" yaml:"session_id"`
	Properties map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	BaseDir       string          // Root directory for session directories
	SessionID     string          // Unique session identifier
	Component     string          // Component/module name
	Level         LogLevel        // Most verbose level written
	Retention     RetentionPolicy // Which old sessions to keep
	EnableJSON    bool            // Write events.jsonl
	EnableYAML    bool            // Write events.yaml
	EnableConsole bool            // Mirror the plain log to Console
	Console       io.Writer       // Defaults to os.Stdout
}

// Logger writes one session's log files.
type Logger struct {
	mu       sync.RWMutex
	logger   *log.Logger
	logLevel LogLevel
	logFile  *os.File
	jsonFile *os.File
	yamlFile *os.File
	config   LoggerConfig
	logDir   string
	hostname string
	version  string
}

var (
	instance *Logger
	once     = new(sync.Once)
)

// Init initializes the singleton Logger based on the provided configuration.
// It must be called before any logging functions are used. Calls after the
// first are no-ops until CloseLogger ends the session.
func Init(cfg *config.Configuration) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLogger(cfg)
	})
	return initErr
}

func generateSessionID(start time.Time) string {
	return fmt.Sprintf("autoinstaller-%d-%s", start.Unix(), start.Format("2006-01-02-150405"))
}

func newLogger(cfg *config.Configuration) (*Logger, error) {
	level := ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = LevelDebug
	}

	return newLoggerWithConfig(LoggerConfig{
		BaseDir:       cfg.LogDir,
		Component:     "autoinstaller",
		Level:         level,
		Retention:     DefaultRetentionPolicy(),
		EnableJSON:    true,
		EnableYAML:    cfg.Debug,
		EnableConsole: cfg.Verbose || cfg.Debug,
	})
}

func newLoggerWithConfig(cfg LoggerConfig) (*Logger, error) {
	sessionStart := time.Now()
	if cfg.SessionID == "" {
		cfg.SessionID = generateSessionID(sessionStart)
	}
	if cfg.Console == nil {
		cfg.Console = os.Stdout
	}

	if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base log directory: %w", err)
	}

	logDir := filepath.Join(cfg.BaseDir, sessionStart.Format(sessionDirLayout))
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create timestamped log directory %s: %w", logDir, err)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	l := &Logger{
		logLevel: cfg.Level,
		config:   cfg,
		logDir:   logDir,
		hostname: hostname,
		version:  version.Version().Version,
	}

	if err := l.initializeLogFiles(); err != nil {
		l.close()
		return nil, err
	}

	if cfg.EnableConsole {
		l.logger = log.New(io.MultiWriter(cfg.Console, l.logFile), "", 0)
	} else {
		l.logger = log.New(l.logFile, "", 0)
	}

	pruneSessions(cfg.BaseDir, logDir, cfg.Retention, sessionStart)

	return l, nil
}

func (l *Logger) initializeLogFiles() error {
	var err error

	l.logFile, err = os.OpenFile(filepath.Join(l.logDir, "autoinstaller.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open main log file: %w", err)
	}

	if l.config.EnableJSON {
		l.jsonFile, err = os.OpenFile(filepath.Join(l.logDir, "events.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open JSON log file: %w", err)
		}
	}

	if l.config.EnableYAML {
		l.yamlFile, err = os.OpenFile(filepath.Join(l.logDir, "events.yaml"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open YAML log file: %w", err)
		}
	}

	return nil
}

func (l *Logger) createLogEntry(level LogLevel, message string, properties map[string]interface{}) LogEntry {
	now := time.Now()
	return LogEntry{
		Time:       now.Unix(),
		Timestamp:  now.Format(time.RFC3339),
		Level:      level.String(),
		Message:    message,
		Component:  l.config.Component,
		PID:        int64(os.Getpid()),
		Hostname:   l.hostname,
		Version:    l.version,
		SessionID:  l.config.SessionID,
		Properties: properties,
	}
}

// CloseLogger closes all log files if they're open and ends the session, so
// a later Init starts a new one.
func CloseLogger() {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	instance.close()
	instance.mu.Unlock()

	instance = nil
	once = new(sync.Once)
}

func (l *Logger) close() {
	for _, f := range []**os.File{&l.logFile, &l.jsonFile, &l.yamlFile} {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil {
			fmt.Printf("Failed to close log file: %v\n", err)
		}
		*f = nil
	}
}

func (l *Logger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logger == nil || l.logFile == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: %s %s %v\n", level.String(), message, keyValues)
		return
	}

	if level > l.logLevel {
		return
	}

	properties := make(map[string]interface{})
	for i := 0; i+1 < len(keyValues); i += 2 {
		properties[fmt.Sprintf("%v", keyValues[i])] = keyValues[i+1]
	}

	entry := l.createLogEntry(level, message, properties)

	l.writeMainLog(entry, keyValues)
	if l.jsonFile != nil {
		l.writeJSONLog(entry)
	}
	if l.yamlFile != nil {
		l.writeYAMLLog(entry)
	}
}

// writeMainLog writes "[ts] LEVEL message k=v ..." to the plain log.
func (l *Logger) writeMainLog(entry LogEntry, keyValues []interface{}) {
	ts := time.Unix(entry.Time, 0).Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %-5s %s", ts, entry.Level, entry.Message)

	for i := 0; i+1 < len(keyValues); i += 2 {
		line += fmt.Sprintf(" %v=%v", keyValues[i], keyValues[i+1])
	}

	l.logger.Println(line)
}

func (l *Logger) writeJSONLog(entry LogEntry) {
	if data, err := json.Marshal(entry); err == nil {
		l.jsonFile.Write(append(data, '\n'))
	}
}

func (l *Logger) writeYAMLLog(entry LogEntry) {
	if data, err := yaml.Marshal(entry); err == nil {
		l.yamlFile.WriteString("---\n" + string(data))
	}
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: INFO %s %v\n", message, keyValues)
		return
	}
	instance.logMessage(LevelInfo, message, keyValues...)
}

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: DEBUG %s %v\n", message, keyValues)
		return
	}
	instance.logMessage(LevelDebug, message, keyValues...)
}

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: WARN %s %v\n", message, keyValues)
		return
	}
	instance.logMessage(LevelWarn, message, keyValues...)
}

// Error logs error messages.
func Error(message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: ERROR %s %v\n", message, keyValues)
		return
	}
	instance.logMessage(LevelError, message, keyValues...)
}

// GetCurrentLogDir returns the current timestamped log directory
func GetCurrentLogDir() string {
	if instance == nil {
		return ""
	}
	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return instance.logDir
}

// GetSessionID returns the current session ID
func GetSessionID() string {
	if instance == nil {
		return ""
	}
	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return instance.config.SessionID
}
