package logger

import (
	"github.com/sirupsen/logrus"
)

// Log доступен сразу, Init только меняет уровень и формат.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// WithLocation добавляет поля, общие для записей об агрегации и эскалации.
func WithLocation(locationKey string) *logrus.Entry {
	return Log.WithField("location_key", locationKey)
}
