package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database credentials are only required for the
// mysql driver; the sqlite3 driver needs a file path.
type Config struct {
    Env      string // application environment (e.g. "dev", "prod")
    Port     string // HTTP port to listen on
    DBDriver string // "mysql" (default) or "sqlite3"
    DBUser   string // database username
    DBPass   string // database password (optional)
    DBHost   string // database host address
    DBPort   string // database port number
    DBName   string // database name
    DBPath   string // sqlite database file

    JWTSecret    string // secret used to verify (and, for dev tooling, sign) JWTs
    AccessTTLMin int    // lifetime of dev tokens in minutes

    LowStockThreshold int           // remaining stock at which fans are notified
    AMQPURL           string        // RabbitMQ URL; empty disables the broker
    NotifyDedupTTL    time.Duration // how long a delivered notice id is remembered
    OrderLogDir       string        // directory of the closed order audit log

    Mail MailConfig
}

// MailConfig configures outgoing email.  An empty SMTPHost selects the
// log-only mailer.
type MailConfig struct {
    From         string
    FromName     string
    SMTPHost     string
    SMTPPort     string
    SMTPUsername string
    SMTPPassword string
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:      must("APP_ENV"),
        Port:     must("APP_PORT"),
        DBDriver: envStr("DB_DRIVER", "mysql"),
        DBPass:   os.Getenv("DB_PASS"), // empty allowed

        JWTSecret:    must("JWT_SECRET"),
        AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),

        LowStockThreshold: envInt("LOW_STOCK_THRESHOLD", 3),
        AMQPURL:           amqpURL(),
        NotifyDedupTTL:    envDur("NOTIFY_DEDUP_TTL", 24*time.Hour),
        OrderLogDir:       envStr("ORDER_LOG_DIR", "logs"),

        Mail: LoadMailConfig(),
    }
    if cfg.DBDriver == "sqlite3" {
        cfg.DBPath = envStr("DB_PATH", "tickets.db")
    } else {
        cfg.DBUser = must("DB_USER")
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    }
    return cfg
}

// LoadMailConfig reads the MAIL_* and SMTP_* variables.
func LoadMailConfig() MailConfig {
    return MailConfig{
        From:         envStr("MAIL_FROM", "noreply@localhost"),
        FromName:     envStr("MAIL_FROM_NAME", "Event Tickets"),
        SMTPHost:     os.Getenv("SMTP_HOST"),
        SMTPPort:     envStr("SMTP_PORT", "587"),
        SMTPUsername: os.Getenv("SMTP_USERNAME"),
        SMTPPassword: os.Getenv("SMTP_PASSWORD"),
    }
}

// amqpURL honours RABBITMQ_URL and the older AMQP_URL.  Unlike the queue
// package default, an unset URL means "no broker".
func amqpURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

