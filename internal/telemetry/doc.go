// Package telemetry обеспечивает наблюдаемость CLI.
//
// Включает:
//   - logging.go — structured logging через slog (всегда в stderr,
//     чтобы не смешиваться с выводом команд)
//   - metrics.go — Prometheus метрики HTTP-запросов к AAP
//
// CLI не поднимает HTTP-сервер: метрики одного запуска можно
// сохранить в файл формата textfile (--metrics-file) для
// node_exporter или для отладки.
package telemetry
