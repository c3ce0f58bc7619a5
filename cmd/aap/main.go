// aap — клиент командной строки для Ansible Automation Platform.
//
// Использование:
//
//	aap [--aap-host HOST] [-o table|json|yaml] <command> <subcommand> [flags]
//
// Команды:
//
//	organization  Организации (Gateway + Controller)
//	user, team    Пользователи и команды (Gateway)
//	project       Проекты и синхронизация SCM
//	template      Job templates и их запуск
//	inventory     Inventories
//	credential    Credentials
//	host          Хосты и метрики автоматизации
//	job           Jobs: просмотр, отмена, перезапуск, вывод
//	workflow      Workflow job templates
//	workflow-job  Запуски workflow
//	whoami        Текущий пользователь
//	ping          Доступность Gateway и Controller
//	resource      Сводка по ресурсам
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/aap/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx, version, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
