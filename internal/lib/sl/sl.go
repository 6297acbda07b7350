// Package sl содержит атрибуты slog, общие для всех компонентов сервиса.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки.
//
//	log.Error("failed to create account", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Kind возвращает атрибут "kind" с типом доменной ошибки.
func Kind[K ~string](kind K) slog.Attr {
	return slog.String("kind", string(kind))
}

// Op возвращает атрибут "op" с именем операции.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}
