package domain

import "time"

// JobStatus — статус job в Controller API.
//
// Жизненный цикл:
//
//	new → pending → waiting → running → successful
//	                                  ↘ failed / error
//	      (или) → canceled (из pending, waiting или running)
type JobStatus string

const (
	// JobStatusNew — job создан, но ещё не поставлен в очередь.
	JobStatusNew JobStatus = "new"

	// JobStatusPending — job ожидает свободной ёмкости.
	JobStatusPending JobStatus = "pending"

	// JobStatusWaiting — job назначен на узел и ждёт запуска.
	JobStatusWaiting JobStatus = "waiting"

	// JobStatusRunning — job выполняется.
	JobStatusRunning JobStatus = "running"

	// JobStatusSuccessful — job завершился успешно.
	JobStatusSuccessful JobStatus = "successful"

	// JobStatusFailed — playbook завершился с ошибкой.
	JobStatusFailed JobStatus = "failed"

	// JobStatusError — ошибка на стороне платформы.
	JobStatusError JobStatus = "error"

	// JobStatusCanceled — job отменён пользователем.
	JobStatusCanceled JobStatus = "canceled"
)

// IsTerminal возвращает true, если статус финальный (job завершён).
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSuccessful, JobStatusFailed, JobStatusError, JobStatusCanceled:
		return true
	default:
		return false
	}
}

// IsCancelable возвращает true, если job ещё можно отменить.
func (s JobStatus) IsCancelable() bool {
	switch s {
	case JobStatusPending, JobStatusWaiting, JobStatusRunning:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// HealthStatus — результат проверки доступности одного API.
//
// Порог определяется временем ответа:
//
//	< 2s → OK, < 5s → SLOW, иначе WARNING; ошибка → FAILED
type HealthStatus string

const (
	HealthOK      HealthStatus = "OK"
	HealthSlow    HealthStatus = "SLOW"
	HealthWarning HealthStatus = "WARNING"
	HealthFailed  HealthStatus = "FAILED"

	// HealthPartial — только для общего статуса: одно API ответило, другое нет.
	HealthPartial HealthStatus = "PARTIAL"
)

// Пороги времени ответа для HealthStatus.
const (
	SlowThreshold    = 2 * time.Second
	WarningThreshold = 5 * time.Second
)

// HealthFromLatency классифицирует успешный ответ по времени.
func HealthFromLatency(d time.Duration) HealthStatus {
	switch {
	case d > WarningThreshold:
		return HealthWarning
	case d > SlowThreshold:
		return HealthSlow
	default:
		return HealthOK
	}
}

// OverallHealth сводит статусы двух API в один.
// Если упало ровно одно API — PARTIAL, если оба — FAILED.
func OverallHealth(a, b HealthStatus) HealthStatus {
	switch {
	case a == HealthFailed && b == HealthFailed:
		return HealthFailed
	case a == HealthFailed || b == HealthFailed:
		return HealthPartial
	case a == HealthWarning || b == HealthWarning:
		return HealthWarning
	case a == HealthSlow || b == HealthSlow:
		return HealthSlow
	default:
		return HealthOK
	}
}
