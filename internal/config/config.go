package config

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultTimeout — таймаут HTTP-запроса по умолчанию.
const DefaultTimeout = 30 * time.Second

// Ключи viper. Переменная окружения — AAP_ + ключ в верхнем регистре.
const (
	KeyHost      = "host"
	KeyUsername  = "username"
	KeyPassword  = "password"
	KeyToken     = "token"
	KeyVerifySSL = "verify_ssl"
	KeyCABundle  = "ca_bundle"
	KeyTimeout   = "timeout"
)

// flagKeys связывает глобальные флаги с ключами viper.
var flagKeys = map[string]string{
	"aap-host":       KeyHost,
	"aap-username":   KeyUsername,
	"aap-password":   KeyPassword,
	"aap-token":      KeyToken,
	"aap-verify-ssl": KeyVerifySSL,
	"aap-ca-bundle":  KeyCABundle,
	"aap-timeout":    KeyTimeout,
}

// Ошибки конфигурации.
var (
	// ErrMissingHost — не задан адрес AAP.
	ErrMissingHost = errors.New("AAP host is required (set AAP_HOST or --aap-host)")

	// ErrMissingAuth — нет ни токена, ни пары логин/пароль.
	ErrMissingAuth = errors.New("authentication required: set AAP_TOKEN or AAP_USERNAME and AAP_PASSWORD")

	// ErrInvalidTimeout — таймаут не число и не длительность, либо не положительный.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidCABundle — файл CA не читается или не содержит сертификатов.
	ErrInvalidCABundle = errors.New("invalid CA bundle")
)

// Config — параметры подключения к AAP.
type Config struct {
	Host      string
	Username  string
	Password  string
	Token     string
	VerifySSL bool
	CABundle  string
	Timeout   time.Duration
}

// Options — откуда читать файлы конфигурации.
type Options struct {
	// ConfigFile — явный путь к YAML. Пустой — искать config.yaml
	// в каталоге конфигурации пользователя; отсутствие файла не ошибка.
	ConfigFile string

	// EnvFile — путь к .env. Пустой — не читать; отсутствие файла не ошибка.
	EnvFile string
}

// RegisterFlags добавляет глобальные флаги подключения.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("aap-host", "", "AAP host URL (env AAP_HOST)")
	flags.String("aap-username", "", "AAP username (env AAP_USERNAME)")
	flags.String("aap-password", "", "AAP password (env AAP_PASSWORD)")
	flags.String("aap-token", "", "AAP OAuth token (env AAP_TOKEN)")
	flags.Bool("aap-verify-ssl", true, "verify TLS certificates (env AAP_VERIFY_SSL)")
	flags.String("aap-ca-bundle", "", "path to a CA bundle PEM file (env AAP_CA_BUNDLE)")
	flags.String("aap-timeout", "", "request timeout, seconds or duration like 45s (env AAP_TIMEOUT)")
}

// BindFlags привязывает флаги из RegisterFlags к ключам viper.
// Флаги, которых нет в flags, пропускаются.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load читает конфигурацию из всех источников и проверяет её.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		// godotenv не перезаписывает уже заданные переменные.
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
		}
	}

	v.SetEnvPrefix("AAP")
	v.AutomaticEnv()
	v.SetDefault(KeyVerifySSL, true)
	v.SetDefault(KeyTimeout, strconv.Itoa(int(DefaultTimeout.Seconds())))

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	timeout, err := ParseTimeout(v.GetString(KeyTimeout))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:      v.GetString(KeyHost),
		Username:  v.GetString(KeyUsername),
		Password:  v.GetString(KeyPassword),
		Token:     v.GetString(KeyToken),
		VerifySSL: ParseBool(v.GetString(KeyVerifySSL)),
		CABundle:  v.GetString(KeyCABundle),
		Timeout:   timeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(dir, "aap"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Validate нормализует адрес и проверяет обязательные поля.
//
// Завершающий "/" убирается, при отсутствии схемы добавляется https://.
// Токен имеет приоритет над логином и паролем.
func (c *Config) Validate() error {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		return ErrMissingHost
	}
	host = strings.TrimRight(host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	c.Host = host

	if c.Token == "" && (c.Username == "" || c.Password == "") {
		return ErrMissingAuth
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// AuthHeader возвращает значение заголовка Authorization.
func (c *Config) AuthHeader() string {
	if c.Token != "" {
		return "Bearer " + c.Token
	}
	creds := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
	return "Basic " + creds
}

// TLSConfig строит настройки TLS. Возвращает nil, если достаточно
// системных значений по умолчанию.
func (c *Config) TLSConfig() (*tls.Config, error) {
	if c.VerifySSL && c.CABundle == "" {
		return nil, nil
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if !c.VerifySSL {
		cfg.InsecureSkipVerify = true
		return cfg, nil
	}

	pem, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCABundle, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: no certificates in %s", ErrInvalidCABundle, c.CABundle)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// ParseBool разбирает булево значение из окружения.
// Истина — true, 1, yes, on (без учёта регистра); всё остальное — ложь.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// ParseTimeout принимает целое число секунд ("30") или длительность ("45s").
// Пустая строка даёт DefaultTimeout.
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTimeout, nil
	}

	var d time.Duration
	if n, err := strconv.Atoi(s); err == nil {
		d = time.Duration(n) * time.Second
	} else {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, s)
		}
		d = parsed
	}

	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidTimeout, s)
	}
	return d, nil
}
