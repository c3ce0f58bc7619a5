// Package cli реализует команды клиента Ansible Automation Platform.
//
// # Обзор
//
// CLI отображает подкоманды на REST-вызовы двух API платформы:
// Gateway (организации, пользователи, команды) и Controller (проекты,
// шаблоны, inventories, хосты, credentials, jobs, workflows).
// Каждый вызов — один процесс, запросы выполняются последовательно.
//
// # Ключевые компоненты
//
// ## Execute
//
// Точка входа. Собирает дерево cobra-команд, настраивает slog по --debug
// и лениво загружает конфигурацию (флаги, AAP_*, .env, config.yaml)
// при первом обращении к API.
//
//	err := cli.Execute(ctx, version, os.Args[1:], os.Stdout, os.Stderr)
//
// ## Output
//
// Форматирование вывода. Поддерживает три режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом -o json
//   - YAML (sigs.k8s.io/yaml) — с флагом -o yaml
//
// Данные выводятся в stdout, сообщения (Success/Warn/Error) — в stderr.
// Это позволяет использовать pipe: aap host list -o json | jq .
//
// ## Разрешение ресурсов
//
// Команды show, set, delete и launch принимают позиционный аргумент
// (имя или ID) и флаги --id/--name. Поиск идёт через resolve.Resolver:
// сначала по точному имени, затем, для позиционного аргумента из цифр,
// по ID. Jobs адресуются только по ID.
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - organization, user, team: list, show, create, set, delete
//   - project: list, show, create, set, update, delete
//   - template: list, show, launch, delete
//   - inventory, host: list, show, create, set, delete (host: metrics)
//   - credential: list, show, create, delete
//   - job: list, show, cancel, relaunch, output
//   - workflow: list, show, launch, delete
//   - workflow-job: list, show, cancel, relaunch
//   - whoami, ping, resource list, version
//
// Каждая группа создаётся через фабричную функцию (NewHostCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// клиентов и Output после парсинга PersistentFlags.
package cli
