// Package api — HTTP-клиент Ansible Automation Platform.
//
// AAP 2.5+ обслуживает две группы endpoints под одним хостом:
//   - Gateway (<host>/api/gateway/v1/) — организации, пользователи, команды
//   - Controller (версия находится через <host>/api/) — проекты, шаблоны,
//     inventories, hosts, jobs
//
// Структура:
//   - client.go — Client: запросы, заголовки, логирование, метрики
//   - errors.go — StatusError и sentinel-ошибки
//   - page.go   — постраничные ответы
//
// Ответы не маппятся на структуры: AAP возвращает объекты с десятками
// полей и вложенными summary_fields, поэтому клиент отдаёт domain.Record.
package api
