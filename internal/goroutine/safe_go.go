package goroutine

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/water-alert-backend/internal/logger"
)

// RecoveryHandler перехватывает panic в фоновых задачах.
type RecoveryHandler struct {
	log *logrus.Logger
}

func NewRecoveryHandler(log *logrus.Logger) *RecoveryHandler {
	if log == nil {
		log = logger.Log
	}
	return &RecoveryHandler{log: log}
}

// Run выполняет fn в текущей горутине. Возвращает false, если fn упала с panic.
func (rh *RecoveryHandler) Run(name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rh.log.WithFields(logrus.Fields{
				"task":  name,
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("panic в фоновой задаче")
			ok = false
		}
	}()
	fn()
	return true
}

var DefaultRecoveryHandler = NewRecoveryHandler(nil)

func Run(name string, fn func()) bool {
	return DefaultRecoveryHandler.Run(name, fn)
}
