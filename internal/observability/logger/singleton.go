package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu   sync.Mutex
	root *zap.Logger
)

// Init construye el logger raíz del proceso con la configuración dada.
// La primera llamada gana; las siguientes son no-ops, así los tests pueden
// llamar Init sin pisarse entre sí.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		root = build(cfg)
	}
}

// L retorna el logger raíz. Si Init todavía no corrió, levanta uno de
// desarrollo (dev/info) para que logging nunca sea nil.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		root = build(Config{Env: "dev", Level: "info"})
	}
	return root
}

// Named retorna un logger hijo identificado por componente.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync descarga los buffers pendientes; va en defer al final de main.
func Sync() error {
	mu.Lock()
	l := root
	mu.Unlock()
	if l == nil {
		return nil
	}
	return l.Sync()
}
