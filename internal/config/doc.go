// Package config собирает параметры подключения к AAP.
//
// Источники в порядке убывания приоритета:
//  1. флаги командной строки (--aap-host, --aap-token, ...)
//  2. переменные окружения AAP_*
//  3. файл .env в текущем каталоге (не перезаписывает окружение)
//  4. YAML-файл конфигурации (--config или ~/.config/aap/config.yaml)
//  5. значения по умолчанию
//
// Слои объединяет viper; .env читает godotenv.
package config
