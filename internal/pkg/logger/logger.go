package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// logrusLogger é a implementação concreta da interface Logger sobre o logrus,
// com saída JSON estruturada.
type logrusLogger struct {
	log *logrus.Logger
}

// NewLogger cria e retorna uma nova instância do Logger.
// Esta função é chamada no main.go.
func NewLogger(level string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return &logrusLogger{log: l}
}

func (l *logrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, fields map[string]interface{}) {
	l.log.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l *logrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, err error) {
	entry := l.log.WithFields(logrus.Fields{})
	if err != nil {
		entry = l.log.WithError(err)
	}
	entry.Error(msg)
}

// Fatal registra o erro e encerra o processo.
func (l *logrusLogger) Fatal(msg string, err error) {
	entry := l.log.WithFields(logrus.Fields{})
	if err != nil {
		entry = l.log.WithError(err)
	}
	entry.Fatal(msg)
}
