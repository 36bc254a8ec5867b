package crypto

import (
	"github.com/sirupsen/logrus"
)

// loggerHelper carries the standard fields attached to every log line the
// hashing helpers emit.
type loggerHelper struct {
	fields logrus.Fields
}

func newLogger(function string) *loggerHelper {
	return &loggerHelper{
		fields: logrus.Fields{
			"function": function,
			"package":  "crypto",
		},
	}
}

// WithField adds a custom field to the logger.
func (l *loggerHelper) WithField(key string, value interface{}) *loggerHelper {
	l.fields[key] = value
	return l
}

// WithFields adds multiple custom fields to the logger.
func (l *loggerHelper) WithFields(fields map[string]interface{}) *loggerHelper {
	for k, v := range fields {
		l.fields[k] = v
	}
	return l
}

// WithError adds error information to the logger.
func (l *loggerHelper) WithError(err error, errorType, operation string) *loggerHelper {
	l.fields["error"] = err.Error()
	l.fields["error_type"] = errorType
	l.fields["operation"] = operation
	return l
}

func (l *loggerHelper) Warn(message string) {
	logrus.WithFields(l.fields).Warn(message)
}

func (l *loggerHelper) Error(message string) {
	logrus.WithFields(l.fields).Error(message)
}
