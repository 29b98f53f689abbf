package logger

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

// ToContext guarda un logger en el contexto. Lo llama el middleware de
// logging con los campos del request (request_id, method, path) ya cargados.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// From recupera el logger del contexto, o el raíz si no hay ninguno: llamable
// desde cualquier capa sin importar si el middleware corrió.
func From(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return L()
}
